package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Authenticator bridges the service to the upstream identity authority.
// Implementations: wso2/ (OAuth2 password grant), wso2test (stub for tests).
type Authenticator interface {
	// Login exchanges credentials for a Session. All-or-nothing: if the
	// profile fetch after the token exchange fails, no session is returned.
	Login(ctx context.Context, creds Credentials) (*Session, error)

	// FetchProfile fetches and normalizes the identity behind an access token.
	FetchProfile(ctx context.Context, accessToken string) (*UserInfo, error)

	// ValidateToken reports whether the token parses and has not expired.
	// Local structural check only; no signature verification, no network.
	ValidateToken(token string) bool
}

// TokenVerifier verifies bearer tokens and extracts claims.
// Implementations: jwks/ (RS256 via JWKS).
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// ProductStore persists catalog products.
// Implementations: store/memory, store/postgres.
type ProductStore interface {
	// List returns active products ordered by name.
	List(ctx context.Context) ([]Product, error)

	// Get returns the product with the given id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Product, error)

	// Create inserts a product. Returns ErrDuplicateSKU if the SKU is taken.
	Create(ctx context.Context, p *Product) error

	// Update replaces the mutable fields of an existing product.
	// Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, p *Product) error

	// Delete removes a product. Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id uuid.UUID) error
}
