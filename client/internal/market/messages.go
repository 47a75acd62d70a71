package market

const (
	msgListingsFailed = "failed to load the market"
	msgListFailed     = "failed to list card"
	msgDelistFailed   = "failed to delist card"
	msgBuyFailed      = "purchase failed"
	msgOrdersFailed   = "failed to load orders"
	msgOrderFailed    = "order update failed"
	msgRecordsFailed  = "failed to load trade history"
)
