package cards

const (
	msgCardsFailed     = "failed to load your cards"
	msgCardInfoFailed  = "failed to load card"
	msgMaterialsFailed = "failed to load materials"
	msgCraftFailed     = "craft failed"
	msgDecomposeFailed = "decompose failed"
	msgPullFailed      = "pull failed"
)
