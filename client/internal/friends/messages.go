package friends

const (
	msgFriendsFailed  = "failed to load friends"
	msgRequestsFailed = "failed to load friend requests"
	msgLookupFailed   = "user not found"
	msgSendFailed     = "failed to send friend request"
	msgHandleFailed   = "failed to handle friend request"
	msgDeleteFailed   = "failed to remove friend"
)
