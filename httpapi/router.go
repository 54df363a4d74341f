// Package httpapi exposes the service's REST surface: the auth endpoints
// backed by the upstream identity bridge, the product catalog CRUD, and the
// static SPA fallback.
package httpapi

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/audit"
	"github.com/bimdevops/catalog-api/config"
	"github.com/bimdevops/catalog-api/metrics"
	"github.com/bimdevops/catalog-api/middleware/ginmw"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the handler dependencies.
type Server struct {
	auth    catalog.Authenticator
	store   catalog.ProductStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Logger
}

// Options configures the router.
type Options struct {
	Authenticator catalog.Authenticator
	Verifier      catalog.TokenVerifier
	Store         catalog.ProductStore
	Roles         config.Roles
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Audit         *audit.Logger
	StaticDir     string
}

// NewRouter assembles the gin engine: the role bridge runs globally and
// never rejects; bearer verification and role checks guard each protected
// group.
func NewRouter(o Options) *gin.Engine {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New(false)
	}

	s := &Server{
		auth:    o.Authenticator,
		store:   o.Store,
		logger:  o.Logger,
		metrics: o.Metrics,
		audit:   o.Audit,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(o.Logger))
	r.Use(ginmw.RoleBridge())
	if o.Audit != nil {
		r.Use(auditDenied(o.Audit))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.POST("/validate", s.validateToken)
	authGroup.GET("/me", ginmw.Auth(o.Verifier), s.currentUser)

	products := api.Group("/products", ginmw.Auth(o.Verifier))
	products.GET("", ginmw.RequireAnyRole(o.Roles.Read...), s.listProducts)
	products.GET("/:id", ginmw.RequireAnyRole(o.Roles.Read...), s.getProduct)
	products.POST("", ginmw.RequireAnyRole(o.Roles.Write...), s.createProduct)
	products.PUT("/:id", ginmw.RequireAnyRole(o.Roles.Write...), s.updateProduct)
	products.DELETE("/:id", ginmw.RequireAnyRole(o.Roles.Delete...), s.deleteProduct)

	users := api.Group("/users", ginmw.Auth(o.Verifier), ginmw.RequireAnyRole(o.Roles.Admin...))
	users.GET("", s.listUsers)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if o.StaticDir != "" {
		registerStatic(r, o.StaticDir)
	}

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// auditDenied records every 403 the policy layer produces.
func auditDenied(logger *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() != http.StatusForbidden {
			return
		}
		username := ""
		if claims := ginmw.GetClaims(c); claims != nil {
			username = claims.Username
		}
		logger.Log(audit.Event{
			Username: username,
			Action:   audit.ActionAccessDenied,
			Result:   audit.ResultDenied,
			Path:     c.Request.URL.Path,
			IP:       c.ClientIP(),
		})
	}
}

// registerStatic serves the single-page UI: real files as-is, everything
// else falls back to index.html so client-side routing works.
func registerStatic(r *gin.Engine, dir string) {
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
}
