package models

// OAuthProfile is the identity assertion delivered by a provider after a
// successful authorization-code exchange. Treated as trusted input once the
// provider handshake has succeeded.
type OAuthProfile struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}
