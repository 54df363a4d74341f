// Package wso2test provides an in-process stub of the upstream authority for
// tests: a password-grant token endpoint and a matching userinfo endpoint,
// no network beyond the test binary.
package wso2test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Option configures the stub server.
type Option func(*Server)

// WithUser registers a user the stub will authenticate. profile is the raw
// userinfo JSON returned for that user's tokens.
func WithUser(username, password string, profile map[string]any) Option {
	return func(s *Server) {
		s.users[username] = stubUser{password: password, profile: profile}
	}
}

// WithClientCredentials makes the token endpoint require this Basic
// credential pair. Unset, any client authentication is accepted.
func WithClientCredentials(id, secret string) Option {
	return func(s *Server) {
		s.clientID, s.clientSecret = id, secret
	}
}

type stubUser struct {
	password string
	profile  map[string]any
}

// Server is a stub upstream authority backed by httptest.
type Server struct {
	*httptest.Server

	clientID     string
	clientSecret string

	mu     sync.Mutex
	users  map[string]stubUser
	tokens map[string]string // access token → username
	nextID int
}

// New starts the stub server. Callers must Close it.
func New(opts ...Option) *Server {
	s := &Server{
		users:  make(map[string]stubUser),
		tokens: make(map[string]string),
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", s.handleToken)
	mux.HandleFunc("/oauth2/userinfo", s.handleUserInfo)
	s.Server = httptest.NewServer(mux)
	return s
}

// TokenURL returns the stub token endpoint.
func (s *Server) TokenURL() string { return s.URL + "/oauth2/token" }

// UserInfoURL returns the stub userinfo endpoint.
func (s *Server) UserInfoURL() string { return s.URL + "/oauth2/userinfo" }

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if s.clientID != "" {
		id, secret, ok := r.BasicAuth()
		if !ok || id != s.clientID || secret != s.clientSecret {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
			return
		}
	}

	if r.FormValue("grant_type") != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username := r.FormValue("username")
	user, ok := s.users[username]
	if !ok || user.password != r.FormValue("password") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_grant",
			"error_description": "authentication failed for " + username,
		})
		return
	}

	s.nextID++
	token := fmt.Sprintf("stub-token-%d", s.nextID)
	s.tokens[token] = username

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        r.FormValue("scope"),
	})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}

	username, ok := s.tokens[auth[len(prefix):]]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	writeJSON(w, http.StatusOK, s.users[username].profile)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
