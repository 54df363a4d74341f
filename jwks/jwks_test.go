package jwks_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bimdevops/catalog-api/jwks"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "https://idp.example.com/oauth2/token"
	testAudience = "catalog-api"
)

// testSetup creates an RSA key pair and a fake JWKS HTTP server.
func testSetup(t *testing.T, kid string) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	server := jwksServer(t, kid, &privateKey.PublicKey)
	return privateKey, server
}

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"keys": []map[string]interface{}{
				{
					"kty": "RSA",
					"use": "sig",
					"kid": kid,
					"alg": "RS256",
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func baseClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      "user-123",
		"username": "alice",
		"iss":      testIssuer,
		"aud":      testAudience,
		"exp":      now.Add(1 * time.Hour).Unix(),
		"iat":      now.Unix(),
		"email":    "a@x.com",
		"roles":    []string{"yks_admin", "yks_user"},
	}
}

func TestVerify_ValidToken(t *testing.T) {
	kid := "key-1"
	privKey, server := testSetup(t, kid)
	defer server.Close()

	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience)

	tokenStr := signToken(t, privKey, kid, baseClaims(time.Now()))

	claims, err := verifier.Verify(context.Background(), tokenStr)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want user-123", claims.Subject)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Issuer != testIssuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, testIssuer)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "yks_admin" || claims.Roles[1] != "yks_user" {
		t.Errorf("Roles = %v, want [yks_admin yks_user]", claims.Roles)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("Email = %q, want a@x.com", claims.Email)
	}
	if claims.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should not be zero")
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	kid := "key-1"
	privKey, server := testSetup(t, kid)
	defer server.Close()

	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience)

	claims := baseClaims(time.Now())
	claims["iss"] = "https://evil.example.com"
	if _, err := verifier.Verify(context.Background(), signToken(t, privKey, kid, claims)); err == nil {
		t.Fatal("Verify() should reject a token from another issuer")
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	kid := "key-1"
	privKey, server := testSetup(t, kid)
	defer server.Close()

	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience)

	claims := baseClaims(time.Now())
	claims["aud"] = "some-other-api"
	if _, err := verifier.Verify(context.Background(), signToken(t, privKey, kid, claims)); err == nil {
		t.Fatal("Verify() should reject a token for another audience")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	kid := "key-1"
	privKey, server := testSetup(t, kid)
	defer server.Close()

	// leeway of zero so an hour-old expiry fails deterministically
	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience, jwks.WithLeeway(0))

	claims := baseClaims(time.Now())
	claims["exp"] = time.Now().Add(-1 * time.Hour).Unix()
	if _, err := verifier.Verify(context.Background(), signToken(t, privKey, kid, claims)); err == nil {
		t.Fatal("Verify() should reject an expired token")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	kid := "key-1"
	_, server := testSetup(t, kid)
	defer server.Close()

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience)

	if _, err := verifier.Verify(context.Background(), signToken(t, otherKey, kid, baseClaims(time.Now()))); err == nil {
		t.Fatal("Verify() should reject a token signed with an unknown key")
	}
}

func TestVerify_CustomRoleClaim(t *testing.T) {
	kid := "key-1"
	privKey, server := testSetup(t, kid)
	defer server.Close()

	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience, jwks.WithRoleClaim("groups"))

	claims := baseClaims(time.Now())
	delete(claims, "roles")
	claims["groups"] = []string{"operators"}

	got, err := verifier.Verify(context.Background(), signToken(t, privKey, kid, claims))
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if len(got.Roles) != 1 || got.Roles[0] != "operators" {
		t.Errorf("Roles = %v, want [operators]", got.Roles)
	}
}

func TestVerify_HMACRejected(t *testing.T) {
	kid := "key-1"
	_, server := testSetup(t, kid)
	defer server.Close()

	verifier := jwks.NewVerifier(server.URL, testIssuer, testAudience)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims(time.Now()))
	signed, err := token.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.Verify(context.Background(), signed); err == nil {
		t.Fatal("Verify() should reject non-RSA signing methods")
	}
}
