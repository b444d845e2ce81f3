package interfaces

// ICredentials supplies the bearer token used at the feed handshake.
type ICredentials interface {
	// Token returns a usable token or an error wrapping
	// helpers.ErrNotAuthenticated.
	Token() (string, error)
}
