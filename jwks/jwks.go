// Package jwks implements bearer-token validation against the upstream
// authority's JWKS endpoint (RFC 7517).
//
// RSA public keys are fetched and cached locally, so request-path token
// verification never calls the identity server. Expected issuer and audience
// are enforced, matching the trust configuration of the upstream authority.
package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// DefaultLeeway is the clock skew tolerated on token time claims.
const DefaultLeeway = 5 * time.Minute

// Verifier implements catalog.TokenVerifier using JWKS public keys.
type Verifier struct {
	jwksURL         string
	issuer          string
	audience        string
	roleClaim       string
	leeway          time.Duration
	httpClient      *http.Client
	refreshInterval time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey // kid → public key
	lastFetch time.Time

	sf singleflight.Group
}

// compile-time check
var _ catalog.TokenVerifier = (*Verifier)(nil)

// Option configures the Verifier.
type Option func(*Verifier)

// WithHTTPClient sets a custom HTTP client for fetching JWKS.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.httpClient = c }
}

// WithRefreshInterval sets how often cached keys are refreshed.
// Default: 1 hour.
func WithRefreshInterval(d time.Duration) Option {
	return func(v *Verifier) { v.refreshInterval = d }
}

// WithRoleClaim sets the claim name roles are read from. Default: "roles".
func WithRoleClaim(name string) Option {
	return func(v *Verifier) { v.roleClaim = name }
}

// WithLeeway sets the tolerated clock skew on time claims.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

// NewVerifier creates a JWKS-based verifier that accepts only tokens issued
// by issuer for audience.
func NewVerifier(jwksURL, issuer, audience string, opts ...Option) *Verifier {
	v := &Verifier{
		jwksURL:         jwksURL,
		issuer:          issuer,
		audience:        audience,
		roleClaim:       "roles",
		leeway:          DefaultLeeway,
		httpClient:      http.DefaultClient,
		refreshInterval: 1 * time.Hour,
		keys:            make(map[string]*rsa.PublicKey),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify validates a bearer token and returns the extracted claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*catalog.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
	)

	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.getKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("jwks: invalid token claims")
	}

	return v.mapToClaims(mapClaims), nil
}

// getKey returns the RSA public key for the given kid, fetching/refreshing
// as needed. Concurrent refreshes collapse into one fetch.
func (v *Verifier) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, found := v.keys[kid]
	stale := time.Since(v.lastFetch) > v.refreshInterval
	v.mu.RUnlock()

	if found && !stale {
		return key, nil
	}

	_, err, _ := v.sf.Do("refresh", func() (interface{}, error) {
		return nil, v.refresh(ctx)
	})
	if err != nil {
		if found {
			return key, nil // use stale key if refresh fails
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if key, ok := v.keys[kid]; ok {
		return key, nil
	}

	// No kid specified — use the first available key
	if kid == "" {
		for _, k := range v.keys {
			return k, nil
		}
	}

	return nil, fmt.Errorf("jwks: key not found for kid %q", kid)
}

// refresh fetches the JWKS from the configured URL and updates the cache.
func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("jwks: create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jwks: fetch: %w: %w", catalog.ErrUpstreamUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks: fetch returned status %d", resp.StatusCode)
	}

	var jwksResp jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwksResp); err != nil {
		return fmt.Errorf("jwks: decode: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwksResp.Keys))
	for _, jwk := range jwksResp.Keys {
		if jwk.Kty != "RSA" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		pub, err := jwk.rsaPublicKey()
		if err != nil {
			continue // skip malformed keys
		}
		keys[jwk.Kid] = pub
	}

	if len(keys) == 0 {
		return fmt.Errorf("jwks: no valid RSA signing keys found")
	}

	v.mu.Lock()
	v.keys = keys
	v.lastFetch = time.Now()
	v.mu.Unlock()

	return nil
}

// JWKS JSON types

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k *jwkKey) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

// mapToClaims converts jwt.MapClaims to catalog.Claims. Roles are read from
// the configured role claim; everything non-standard lands in Extra.
func (v *Verifier) mapToClaims(m jwt.MapClaims) *catalog.Claims {
	c := &catalog.Claims{
		Extra: make(map[string]any),
	}

	if s, ok := m["sub"].(string); ok {
		c.Subject = s
	}
	if s, ok := m["username"].(string); ok {
		c.Username = s
	} else if s, ok := m["preferred_username"].(string); ok {
		c.Username = s
	}
	if s, ok := m["email"].(string); ok {
		c.Email = s
	}
	if s, ok := m["iss"].(string); ok {
		c.Issuer = s
	}
	if f, ok := m["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(f), 0)
	}
	if f, ok := m["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(f), 0)
	}
	if roles, ok := m[v.roleClaim].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				c.Roles = append(c.Roles, s)
			}
		}
	}

	standard := map[string]bool{
		"sub": true, "username": true, "preferred_username": true,
		"email": true, "iss": true, "exp": true, "iat": true,
		"aud": true, "nbf": true, "jti": true, v.roleClaim: true,
	}
	for k, val := range m {
		if !standard[k] {
			c.Extra[k] = val
		}
	}

	return c
}
