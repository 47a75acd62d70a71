package groups

const (
	msgSearchFailed   = "failed to search groups"
	msgMineFailed     = "failed to load your groups"
	msgNoticeFailed   = "failed to load notices"
	msgRequestsFailed = "failed to load join requests"
	msgActionFailed   = "group action failed"
)
