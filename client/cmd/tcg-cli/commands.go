package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/app"
	"NarcissusTCG/client/internal/state"
	"github.com/davecgh/go-spew/spew"
)

type command struct {
	usage     string
	minArgs   int
	anonymous bool
	run       func(ctx context.Context, a *app.App, args []string) error
}

var errBusy = errors.New("azione gia' in corso")

var commands = map[string]command{
	"register": {usage: "<nome> <password> <email>", minArgs: 3, anonymous: true, run: runRegister},
	"login":    {usage: "<nome> <password>", minArgs: 2, anonymous: true, run: runLogin},
	"logout":   {usage: "", anonymous: true, run: runLogout},
	"me":       {usage: "", run: runMe},
	"avatar":   {usage: "<file immagine>", minArgs: 1, run: runAvatar},
	"dump":     {usage: "", run: runDump},

	"cards":     {usage: "[nome]", run: runCards},
	"card":      {usage: "<card_id>", minArgs: 1, run: runCard},
	"craft":     {usage: "<card_id>", minArgs: 1, run: runCraft},
	"decompose": {usage: "<card_id> <numero>", minArgs: 2, run: runDecompose},
	"pull":      {usage: "<volte> [pacchetto]", minArgs: 1, run: runPull},

	"market":   {usage: "[nome]", run: runMarket},
	"sell":     {usage: "<card_id> <numero> <prezzo> [private]", minArgs: 3, run: runSell},
	"delist":   {usage: "<store_id> [numero]", minArgs: 1, run: runDelist},
	"buy":      {usage: "<store_id> <numero> [slippage]", minArgs: 2, run: runBuy},
	"orders":   {usage: "", run: runOrders},
	"complete": {usage: "<order_id>", minArgs: 1, run: runComplete},
	"cancel":   {usage: "<order_id>", minArgs: 1, run: runCancel},
	"records":  {usage: "", run: runRecords},

	"friends":  {usage: "", run: runFriends},
	"add":      {usage: "<uid> [messaggio]", minArgs: 1, run: runAddFriend},
	"accept":   {usage: "<uid>", minArgs: 1, run: runAccept},
	"reject":   {usage: "<uid>", minArgs: 1, run: runReject},
	"unfriend": {usage: "<uid>", minArgs: 1, run: runUnfriend},

	"groups":       {usage: "[nome]", run: runGroups},
	"group-create": {usage: "<nome> [firma]", minArgs: 1, run: runGroupCreate},
	"join":         {usage: "<gid>", minArgs: 1, run: runJoin},
	"leave":        {usage: "<gid>", minArgs: 1, run: runLeave},
	"notice":       {usage: "<gid> [testo]", minArgs: 1, run: runNotice},
	"chat":         {usage: "<gid> [altri gid...]", minArgs: 1, run: runChat},
}

// result converte l'esito di un'azione nell'errore mostrato all'utente.
func result(ok bool, st state.Status) error {
	if ok {
		return nil
	}
	if st.Error == "" {
		return errBusy
	}
	return errors.New(st.Error)
}

func loadError[T any](ok bool, r state.AsyncResult[T]) error {
	if ok {
		return nil
	}
	if r.Error == "" {
		return errBusy
	}
	return errors.New(r.Error)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id non valido: %q", s)
	}
	return id, nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("numero non valido: %q", s)
	}
	return n, nil
}

func runRegister(ctx context.Context, a *app.App, args []string) error {
	ok := a.User.Register(ctx, api.RegisterParams{UserName: args[0], Password: args[1], Email: args[2]})
	if err := result(ok, a.Snapshot().User.Request); err != nil {
		return err
	}
	fmt.Println("registrazione completata")
	return nil
}

func runLogin(ctx context.Context, a *app.App, args []string) error {
	if err := result(a.User.Login(ctx, args[0], args[1]), a.Snapshot().User.Request); err != nil {
		return err
	}
	me := a.Snapshot().User.User
	fmt.Printf("benvenuto %s (uid=%s)\n", me.Name, me.UID)
	return nil
}

func runLogout(ctx context.Context, a *app.App, _ []string) error {
	a.User.Logout(ctx)
	fmt.Println("sessione chiusa")
	return nil
}

func runMe(_ context.Context, a *app.App, _ []string) error {
	me := a.Snapshot().User.User
	fmt.Printf("uid=%s name=%s title=%q level=%d exp=%d byte=%d email=%s\n",
		me.UID, me.Name, me.Title, me.Level, me.Exp, me.Byte, me.Email)
	return nil
}

func runAvatar(ctx context.Context, a *app.App, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := result(a.User.UploadAvatar(ctx, args[0], content), a.Snapshot().User.Request); err != nil {
		return err
	}
	fmt.Println("avatar aggiornato:", a.Snapshot().User.User.Avatar)
	return nil
}

func runDump(ctx context.Context, a *app.App, _ []string) error {
	a.Cards.LoadUserCards(ctx, api.CardFilter{})
	a.Market.LoadOrders(ctx)
	a.Friends.LoadFriends(ctx)
	a.Groups.LoadMine(ctx)
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Dump(a.Snapshot())
	return nil
}

func runCards(ctx context.Context, a *app.App, args []string) error {
	filter := api.CardFilter{}
	if len(args) > 0 {
		filter.NameIn = args[0]
	}
	ok := a.Cards.LoadUserCards(ctx, filter)
	snap := a.Snapshot().Cards
	if err := loadError(ok, snap.Owned); err != nil {
		return err
	}
	for _, c := range snap.Owned.Data {
		fmt.Printf("%4d  %-20s %-10s %-8s x%d\n", c.CardID, c.Name, c.Rarity, c.Package, c.Number)
	}
	return nil
}

func runCard(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok := a.Cards.LoadCardInfo(ctx, id)
	okCompose := a.Cards.LoadComposeMaterials(ctx, id)
	snap := a.Snapshot().Cards
	if err := loadError(ok, snap.Details[id]); err != nil {
		return err
	}
	card := snap.Details[id].Data
	fmt.Printf("%d %s [%s] pacchetto=%s livello=%d\n%s\n", card.CardID, card.Name, card.Rarity, card.Package, card.UnlockLevel, card.Description)
	if okCompose {
		for _, m := range snap.Compose[id].Data {
			fmt.Printf("  richiede card %d x%d\n", m.CardID, m.Number)
		}
	}
	return nil
}

func runCraft(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok := a.Cards.LoadComposeMaterials(ctx, id)
	if err := loadError(ok, a.Snapshot().Cards.Compose[id]); err != nil {
		return err
	}
	materials := a.Snapshot().Cards.Compose[id].Data
	if err := result(a.Cards.Craft(ctx, api.CraftParams{CardID: id, Materials: materials}), a.Snapshot().Cards.Action); err != nil {
		return err
	}
	fmt.Printf("carta %d creata, ora ne possiedi %d\n", id, a.Snapshot().Cards.Quantity(id))
	return nil
}

func runDecompose(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := parseCount(args[1])
	if err != nil {
		return err
	}
	if err := result(a.Cards.Decompose(ctx, api.DecomposeParams{CardID: id, Number: n}), a.Snapshot().Cards.Action); err != nil {
		return err
	}
	fmt.Printf("carta %d scomposta, restano %d copie\n", id, a.Snapshot().Cards.Quantity(id))
	return nil
}

func runPull(ctx context.Context, a *app.App, args []string) error {
	times, err := parseCount(args[0])
	if err != nil {
		return err
	}
	params := api.PullParams{Times: times}
	if len(args) > 1 {
		params.Package = args[1]
	}
	ok := a.Cards.Pull(ctx, params)
	snap := a.Snapshot().Cards
	if err := loadError(ok, snap.Draw); err != nil {
		return err
	}
	for _, c := range snap.Draw.Data.Cards {
		fmt.Printf("estratta %d %s [%s] x%d\n", c.CardID, c.Name, c.Rarity, c.Number)
	}
	return nil
}

func runMarket(ctx context.Context, a *app.App, args []string) error {
	filter := api.StoreFilter{}
	if len(args) > 0 {
		filter.NameIn = args[0]
	}
	ok := a.Market.LoadListings(ctx, filter)
	snap := a.Snapshot().Market
	if err := loadError(ok, snap.Listings); err != nil {
		return err
	}
	printListings(snap.Listings.Data)
	return nil
}

func printListings(cards []api.StoreCard) {
	for _, c := range cards {
		fmt.Printf("store=%d card=%d %-20s x%d @%d da %s\n", c.StoreID, c.CardID, c.Name, c.Number, c.Price, c.OwnerName)
	}
}

func runSell(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := parseCount(args[1])
	if err != nil {
		return err
	}
	price, err := parseID(args[2])
	if err != nil {
		return err
	}
	card := api.StoreCard{CardID: id, Number: n, Price: price, IsPublish: len(args) < 4 || args[3] != "private"}
	if err := result(a.Market.ListCard(ctx, card), a.Snapshot().Market.Action); err != nil {
		return err
	}
	fmt.Println("carta in vendita")
	return nil
}

// findListing cerca il listing tra quelli pubblici caricati.
func findListing(ctx context.Context, a *app.App, storeID int64) (api.StoreCard, error) {
	ok := a.Market.LoadListings(ctx, api.StoreFilter{})
	snap := a.Snapshot().Market
	if err := loadError(ok, snap.Listings); err != nil {
		return api.StoreCard{}, err
	}
	for _, c := range snap.Listings.Data {
		if c.StoreID == storeID {
			return c, nil
		}
	}
	return api.StoreCard{}, fmt.Errorf("listing %d non trovato", storeID)
}

func runDelist(ctx context.Context, a *app.App, args []string) error {
	storeID, err := parseID(args[0])
	if err != nil {
		return err
	}
	card := api.StoreCard{StoreID: storeID}
	if len(args) > 1 {
		if card.Number, err = parseCount(args[1]); err != nil {
			return err
		}
	}
	if err := result(a.Market.DelistCard(ctx, card), a.Snapshot().Market.Action); err != nil {
		return err
	}
	fmt.Println("listing ritirato")
	return nil
}

func runBuy(ctx context.Context, a *app.App, args []string) error {
	storeID, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := parseCount(args[1])
	if err != nil {
		return err
	}
	var slippage int64
	if len(args) > 2 {
		if slippage, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return fmt.Errorf("slippage non valido: %q", args[2])
		}
	}
	card, err := findListing(ctx, a, storeID)
	if err != nil {
		return err
	}
	card.Number = n
	if err := result(a.Market.BuyCard(ctx, card, slippage), a.Snapshot().Market.Action); err != nil {
		return err
	}
	fmt.Printf("acquisto completato, spesi %d byte\n", a.Snapshot().Market.LastCost)
	return nil
}

func runOrders(ctx context.Context, a *app.App, _ []string) error {
	ok := a.Market.LoadOrders(ctx)
	snap := a.Snapshot().Market
	if err := loadError(ok, snap.Orders); err != nil {
		return err
	}
	for _, o := range snap.Orders.Data {
		fmt.Printf("order=%d card=%d x%d @%d stato=%s\n", o.OrderID, o.CardID, o.Number, o.Price, o.Status)
	}
	return nil
}

func runComplete(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := result(a.Market.CompleteOrder(ctx, id), a.Snapshot().Market.Action); err != nil {
		return err
	}
	reward := a.Snapshot().Market.LastReward
	fmt.Printf("ordine %d completato: +%d exp +%d byte\n", id, reward.Exp, reward.Byte)
	return nil
}

func runCancel(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := result(a.Market.CancelOrder(ctx, id), a.Snapshot().Market.Action); err != nil {
		return err
	}
	fmt.Printf("ordine %d annullato\n", id)
	return nil
}

func runRecords(ctx context.Context, a *app.App, _ []string) error {
	okBuy := a.Market.LoadBuyRecords(ctx)
	okSell := a.Market.LoadSellRecords(ctx)
	snap := a.Snapshot().Market
	if err := loadError(okBuy, snap.BuyRecords); err != nil {
		return err
	}
	if err := loadError(okSell, snap.SellRecords); err != nil {
		return err
	}
	for _, r := range snap.BuyRecords.Data {
		fmt.Printf("comprato %s x%d @%d da %s\n", r.CardName, r.Number, r.Price, r.SellerName)
	}
	for _, r := range snap.SellRecords.Data {
		fmt.Printf("venduto %s x%d @%d a %s\n", r.CardName, r.Number, r.Price, r.BuyerName)
	}
	return nil
}

func runFriends(ctx context.Context, a *app.App, _ []string) error {
	okFriends := a.Friends.LoadFriends(ctx)
	okRequests := a.Friends.LoadRequests(ctx)
	snap := a.Snapshot().Friends
	if err := loadError(okFriends, snap.Friends); err != nil {
		return err
	}
	for _, f := range snap.Friends.Data {
		fmt.Printf("amico %s (uid=%s) livello %d\n", f.Name, f.UID, f.Level)
	}
	if okRequests {
		for _, f := range snap.Requests.Data.Received {
			fmt.Printf("richiesta da %s (uid=%s): %s\n", f.Name, f.UID, f.Message)
		}
		for _, f := range snap.Requests.Data.Sent {
			fmt.Printf("in attesa di %s (uid=%s)\n", f.Name, f.UID)
		}
	}
	return nil
}

func runAddFriend(ctx context.Context, a *app.App, args []string) error {
	message := strings.Join(args[1:], " ")
	if err := result(a.Friends.SendRequest(ctx, args[0], message), a.Snapshot().Friends.Action); err != nil {
		return err
	}
	fmt.Println("richiesta inviata")
	return nil
}

func runAccept(ctx context.Context, a *app.App, args []string) error {
	if err := result(a.Friends.AcceptRequest(ctx, args[0]), a.Snapshot().Friends.Action); err != nil {
		return err
	}
	fmt.Println("richiesta accettata")
	return nil
}

func runReject(ctx context.Context, a *app.App, args []string) error {
	if err := result(a.Friends.RejectRequest(ctx, args[0]), a.Snapshot().Friends.Action); err != nil {
		return err
	}
	fmt.Println("richiesta rifiutata")
	return nil
}

func runUnfriend(ctx context.Context, a *app.App, args []string) error {
	if err := result(a.Friends.DeleteFriend(ctx, args[0]), a.Snapshot().Friends.Action); err != nil {
		return err
	}
	fmt.Println("amicizia rimossa")
	return nil
}

func runGroups(ctx context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		ok := a.Groups.Search(ctx, api.GroupFilter{NameIn: args[0]})
		snap := a.Snapshot().Groups
		if err := loadError(ok, snap.Search); err != nil {
			return err
		}
		printGroups(snap.Search.Data)
		return nil
	}
	ok := a.Groups.LoadMine(ctx)
	snap := a.Snapshot().Groups
	if err := loadError(ok, snap.Mine); err != nil {
		return err
	}
	printGroups(snap.Mine.Data)
	return nil
}

func printGroups(groups []api.Group) {
	for _, g := range groups {
		fmt.Printf("gid=%s %-20s livello %d libero=%v %s\n", g.UID, g.Name, g.Level, g.JoinFree, strings.Join(g.Tags, ","))
	}
}

func runGroupCreate(ctx context.Context, a *app.App, args []string) error {
	settings := api.GroupSettings{Name: args[0], AllowSearch: true, JoinFree: true}
	if len(args) > 1 {
		settings.Signature = strings.Join(args[1:], " ")
	}
	if err := result(a.Groups.Create(ctx, settings), a.Snapshot().Groups.Action); err != nil {
		return err
	}
	fmt.Println("gruppo creato:", a.Snapshot().Groups.LastCreated)
	return nil
}

func runJoin(ctx context.Context, a *app.App, args []string) error {
	if err := result(a.Groups.Join(ctx, args[0]), a.Snapshot().Groups.Action); err != nil {
		return err
	}
	fmt.Println("richiesta di ingresso inviata")
	return nil
}

func runLeave(ctx context.Context, a *app.App, args []string) error {
	if err := result(a.Groups.Leave(ctx, args[0]), a.Snapshot().Groups.Action); err != nil {
		return err
	}
	fmt.Println("gruppo lasciato")
	return nil
}

func runNotice(ctx context.Context, a *app.App, args []string) error {
	gid := args[0]
	if len(args) > 1 {
		if err := result(a.Groups.PostNotice(ctx, gid, strings.Join(args[1:], " ")), a.Snapshot().Groups.Action); err != nil {
			return err
		}
	} else if ok := a.Groups.LoadNotice(ctx, gid); !ok {
		return loadError(ok, a.Snapshot().Groups.Notices[gid])
	}
	for _, n := range a.Snapshot().Groups.Notices[gid].Data {
		fmt.Printf("[%s] %s: %s\n", n.CreatedAt.Format("2006-01-02 15:04"), n.UserName, n.Content)
	}
	return nil
}
