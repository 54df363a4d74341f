package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/audit"
	"github.com/gin-gonic/gin"
)

// Client-visible messages. Deliberately generic: upstream failure detail is
// logged server-side and never echoed to the caller.
const (
	msgInvalidCredentials = "Invalid username or password"
	msgLoginError         = "An error occurred during login"
	msgUserInfoError      = "Failed to get user information"
)

// login exchanges credentials for a session via the upstream authority.
func (s *Server) login(c *gin.Context) {
	var creds catalog.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	start := time.Now()
	session, err := s.auth.Login(c.Request.Context(), creds)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, catalog.ErrInvalidCredentials):
		s.metrics.ObserveLogin(elapsed, "invalid_credentials")
		s.auditLogin(c, creds.Username, audit.ResultFailure, err)
		s.logger.Warn("login failed", "username", creds.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"message": msgInvalidCredentials})
		return
	case err != nil:
		reason := "upstream_protocol"
		if errors.Is(err, catalog.ErrUpstreamUnreachable) {
			reason = "upstream_unreachable"
		}
		s.metrics.ObserveLogin(elapsed, reason)
		s.auditLogin(c, creds.Username, audit.ResultFailure, err)
		s.logger.Error("login error", "username", creds.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgLoginError})
		return
	}

	s.metrics.ObserveLogin(elapsed, "")
	s.auditLogin(c, session.UserInfo.Username, audit.ResultSuccess, nil)
	s.logger.Info("user logged in",
		"username", session.UserInfo.Username,
		"role", session.UserInfo.Role,
	)
	c.JSON(http.StatusOK, session)
}

// currentUser re-fetches the profile behind the presented bearer token.
// An unreachable upstream is a server fault, never a silent empty identity.
func (s *Server) currentUser(c *gin.Context) {
	token := bearerToken(c)
	userInfo, err := s.auth.FetchProfile(c.Request.Context(), token)
	if err != nil {
		s.logger.Error("failed to fetch current user info", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgUserInfoError})
		return
	}
	c.JSON(http.StatusOK, userInfo)
}

type tokenValidationRequest struct {
	Token string `json:"token"`
}

// validateToken answers the structural liveness check. The boolean never
// errors: anything that goes wrong is reported as isValid=false.
func (s *Server) validateToken(c *gin.Context) {
	var req tokenValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.ObserveTokenValidation(false)
		c.JSON(http.StatusOK, gin.H{"isValid": false})
		return
	}

	isValid := s.auth.ValidateToken(req.Token)
	s.metrics.ObserveTokenValidation(isValid)
	c.JSON(http.StatusOK, gin.H{"isValid": isValid})
}

func (s *Server) auditLogin(c *gin.Context, username, result string, err error) {
	if s.audit == nil {
		return
	}
	e := audit.Event{
		Username: username,
		Action:   audit.ActionLogin,
		Result:   result,
		IP:       c.ClientIP(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	s.audit.Log(e)
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
