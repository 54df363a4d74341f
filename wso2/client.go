// Package wso2 implements the identity bridge to a WSO2-style OAuth2/OIDC
// authority: the password-grant exchange, the userinfo fetch, and claim
// normalization into the service's canonical identity shape.
package wso2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/introspect"
)

// Scope is the fixed scope string requested on every password grant. It asks
// the upstream for identity, role and group claims alongside the token.
const Scope = "openid profile email roles groups"

// DefaultTimeout bounds every outbound call to the upstream authority.
const DefaultTimeout = 30 * time.Second

const maxLoggedBody = 512

// Client performs credential exchanges against the upstream authority.
// It is stateless: every call is an independent outbound request, safe for
// concurrent use.
type Client struct {
	tokenURL     string
	userInfoURL  string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
}

// compile-time check
var _ catalog.Authenticator = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for upstream requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the outbound request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

// WithLogger sets a structured logger for upstream failure diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a client for the given token/userinfo endpoints, authenticating
// itself with the configured client id/secret pair.
func New(tokenURL, userInfoURL, clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		tokenURL:     tokenURL,
		userInfoURL:  userInfoURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// tokenResponse is the raw JSON response from the token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Scope        string `json:"scope"`
}

// Login exchanges the credentials for an access token, then immediately
// fetches and normalizes the profile behind it. All-or-nothing: a profile
// failure aborts the login and no partial session is returned.
func (c *Client) Login(ctx context.Context, creds catalog.Credentials) (*catalog.Session, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {creds.Username},
		"password":   {creds.Password},
		"scope":      {Scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("wso2: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("token endpoint unreachable", "endpoint", c.tokenURL, "error", err)
		return nil, fmt.Errorf("wso2: token request: %w: %w", catalog.ErrUpstreamUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wso2: read token response: %w: %w", catalog.ErrUpstreamUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The upstream body is diagnostics only; it must never reach the client.
		c.logger.Warn("token exchange rejected",
			"endpoint", c.tokenURL,
			"status", resp.StatusCode,
			"body", truncate(body),
			"username", creds.Username,
		)
		return nil, fmt.Errorf("wso2: token endpoint returned %d: %w", resp.StatusCode, catalog.ErrInvalidCredentials)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		c.logger.Error("token response undecodable", "endpoint", c.tokenURL, "body", truncate(body), "error", err)
		return nil, fmt.Errorf("wso2: decode token response: %w", catalog.ErrUpstreamProtocol)
	}
	if tok.AccessToken == "" {
		c.logger.Error("token response missing access_token", "endpoint", c.tokenURL)
		return nil, fmt.Errorf("wso2: empty access_token in response: %w", catalog.ErrUpstreamProtocol)
	}

	userInfo, err := c.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &catalog.Session{
		AccessToken:  tok.AccessToken,
		TokenType:    tokenType,
		ExpiresIn:    tok.ExpiresIn,
		RefreshToken: tok.RefreshToken,
		UserInfo:     *userInfo,
	}, nil
}

// FetchProfile calls the userinfo endpoint with the access token and
// normalizes the returned claims.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*catalog.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wso2: create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("userinfo endpoint unreachable", "endpoint", c.userInfoURL, "error", err)
		return nil, fmt.Errorf("wso2: userinfo request: %w: %w", catalog.ErrUpstreamUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wso2: read userinfo response: %w: %w", catalog.ErrUpstreamUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("userinfo request rejected",
			"endpoint", c.userInfoURL,
			"status", resp.StatusCode,
			"body", truncate(body),
		)
		return nil, fmt.Errorf("wso2: userinfo endpoint returned %d: %w", resp.StatusCode, catalog.ErrInvalidCredentials)
	}

	var profile userInfoResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		c.logger.Error("userinfo response undecodable", "endpoint", c.userInfoURL, "body", truncate(body), "error", err)
		return nil, fmt.Errorf("wso2: decode userinfo response: %w", catalog.ErrUpstreamProtocol)
	}

	info := normalizeProfile(profile)
	return &info, nil
}

// ValidateToken reports whether the token parses as a JWT and its embedded
// expiry is in the future. Structural check only: the upstream authority
// remains the source of truth for signature and revocation, so this must
// never gate a protected action on its own.
func (c *Client) ValidateToken(token string) bool {
	claims, ok := introspect.Decode(token)
	if !ok {
		return false
	}
	return !introspect.Expired(claims, time.Now())
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
