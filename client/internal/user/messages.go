package user

const (
	msgLoginFailed    = "login failed"
	msgRegisterFailed = "registration failed"
	msgProfileFailed  = "failed to load profile"
	msgUpdateFailed   = "failed to update profile"
	msgAvatarFailed   = "failed to upload avatar"
)
