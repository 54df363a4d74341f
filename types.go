package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Credentials carries a username/password pair for a single login attempt.
// It is never persisted and never logged.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserInfo is the canonical identity shape used throughout the service,
// normalized from whatever claim layout the upstream authority returns.
//
// Role is always Roles[0] when Roles is non-empty, and "" otherwise.
type UserInfo struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Role      string   `json:"role"`
	Roles     []string `json:"roles"`
	Groups    []string `json:"groups"`
}

// Session is the response to a successful login. The server keeps no copy;
// the client is the sole holder of the token.
type Session struct {
	AccessToken  string   `json:"accessToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int      `json:"expiresIn"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	UserInfo     UserInfo `json:"userInfo"`
}

// Claims represents the standard claims extracted from a verified token.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	Roles     []string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Extra     map[string]any
}

// Product is a catalog entry. SKU is unique across the store.
type Product struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name" binding:"required,max=200"`
	Description   string     `json:"description,omitempty" binding:"max=1000"`
	Price         float64    `json:"price"`
	StockQuantity int        `json:"stockQuantity"`
	Category      string     `json:"category,omitempty" binding:"max=50"`
	SKU           string     `json:"sku,omitempty" binding:"max=100"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	CreatedBy     string     `json:"-"`
	UpdatedBy     string     `json:"-"`
}
