package catalog

import "errors"

// Error taxonomy for upstream and store failures. Handlers translate these
// into HTTP statuses; the raw upstream detail behind them is logged at the
// point of failure and never reaches the client.
var (
	// ErrInvalidCredentials means the upstream authority rejected the
	// credential or the token it was asked to act on.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUpstreamProtocol means the upstream returned success but a body
	// that could not be decoded or was missing required fields.
	ErrUpstreamProtocol = errors.New("malformed upstream response")

	// ErrUpstreamUnreachable means the upstream could not be reached at the
	// transport level, including timeouts.
	ErrUpstreamUnreachable = errors.New("upstream authority unreachable")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSKU means a product with the same SKU already exists.
	ErrDuplicateSKU = errors.New("duplicate sku")
)
