package api

import "time"

// User e' il profilo pubblico di un giocatore.
type User struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Avatar    string `json:"avatar,omitempty"`
	Signature string `json:"signature,omitempty"`
	Level     int    `json:"level"`
}

// UserSelf e' il profilo dell'utente autenticato.
type UserSelf struct {
	User
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Byte  int64  `json:"byte"`
}

// Card e' una voce del catalogo.
type Card struct {
	CardID      int64  `json:"card_id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Rarity      string `json:"rarity"`
	Package     string `json:"package"`
	UnlockLevel int    `json:"unlock_level"`
	Description string `json:"description"`
}

// UserCard e' una carta posseduta con la sua quantita'.
type UserCard struct {
	Card
	Number int `json:"number"`
}

// Material e' un requisito di composizione o un prodotto di scomposizione.
type Material struct {
	CardID int64 `json:"card_id"`
	Number int   `json:"number"`
}

// StoreCard e' un listing del marketplace.
type StoreCard struct {
	StoreID   int64  `json:"store_id,omitempty"`
	CardID    int64  `json:"card_id"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Rarity    string `json:"rarity,omitempty"`
	Package   string `json:"package,omitempty"`
	Number    int    `json:"number"`
	Price     int64  `json:"price"`
	OwnerName string `json:"owner_name,omitempty"`
	IsPublish bool   `json:"is_publish"`
}

// OrderStatus e' lo stato di un ordine.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order collega acquirente, venditore e carta scambiata.
type Order struct {
	OrderID   int64       `json:"order_id"`
	BuyerUID  string      `json:"buyer_uid"`
	SellerUID string      `json:"seller_uid"`
	CardID    int64       `json:"card_id"`
	Number    int         `json:"number"`
	Price     int64       `json:"price"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// StoreRecord e' una transazione conclusa.
type StoreRecord struct {
	BuyerName  string    `json:"buyer_name"`
	SellerName string    `json:"seller_name"`
	CardName   string    `json:"card_name"`
	Number     int       `json:"number"`
	Price      int64     `json:"price"`
	TradeTime  time.Time `json:"trade_time"`
}

// Friend e' un amico o una controparte di una richiesta.
type Friend struct {
	User
	Message string `json:"message,omitempty"`
}

// FriendRequests separa le richieste inviate da quelle ricevute.
type FriendRequests struct {
	Sent     []Friend `json:"sent"`
	Received []Friend `json:"received"`
}

// Group e' un gruppo di giocatori.
type Group struct {
	UID         string   `json:"uid"`
	Name        string   `json:"name"`
	Avatar      string   `json:"avatar,omitempty"`
	Signature   string   `json:"signature,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Level       int      `json:"level"`
	AllowSearch bool     `json:"allow_search"`
	JoinFree    bool     `json:"join_free"`
}

// GroupSettings e' il body di creazione/modifica di un gruppo.
type GroupSettings struct {
	Name        string   `json:"name"`
	Signature   string   `json:"signature,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	AllowSearch bool     `json:"allow_search"`
	JoinFree    bool     `json:"join_free"`
}

// GroupMessage e' un messaggio o un avviso di gruppo.
type GroupMessage struct {
	GroupUID    string    `json:"group_uid"`
	UserName    string    `json:"user_name"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}
