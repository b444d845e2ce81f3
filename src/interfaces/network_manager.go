package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager performs backend HTTP requests with retry and proxy logic.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to path with query parameters and returns
	// the response body.
	Get(ctx context.Context, path string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Post sends body as JSON and returns the response body.
	Post(ctx context.Context, path string, body interface{}) ([]byte, error)

	// -----------------------------------------------------------------------------

	// SetToken sets the bearer token attached to later requests.
	SetToken(token string)
}
