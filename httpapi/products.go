package httpapi

import (
	"errors"
	"net/http"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/middleware/ginmw"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.store.List(c.Request.Context())
	s.metrics.ObserveProductOp("list", err)
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := s.store.Get(c.Request.Context(), id)
	s.metrics.ObserveProductOp("get", err)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to get product", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) createProduct(c *gin.Context) {
	var product catalog.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product payload"})
		return
	}

	product.ID = uuid.New()
	product.CreatedAt = time.Now().UTC()
	product.UpdatedAt = nil
	product.CreatedBy = requestUsername(c)

	err := s.store.Create(c.Request.Context(), &product)
	s.metrics.ObserveProductOp("create", err)
	if errors.Is(err, catalog.ErrDuplicateSKU) {
		c.JSON(http.StatusConflict, gin.H{"message": "A product with this SKU already exists"})
		return
	}
	if err != nil {
		s.logger.Error("failed to create product", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create product"})
		return
	}

	c.Header("Location", "/api/products/"+product.ID.String())
	c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var payload catalog.Product
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product payload"})
		return
	}

	existing, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to load product for update", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update product"})
		return
	}

	now := time.Now().UTC()
	existing.Name = payload.Name
	existing.Description = payload.Description
	existing.Price = payload.Price
	existing.StockQuantity = payload.StockQuantity
	existing.Category = payload.Category
	existing.SKU = payload.SKU
	existing.IsActive = payload.IsActive
	existing.UpdatedAt = &now
	existing.UpdatedBy = requestUsername(c)

	err = s.store.Update(c.Request.Context(), existing)
	s.metrics.ObserveProductOp("update", err)
	if errors.Is(err, catalog.ErrDuplicateSKU) {
		c.JSON(http.StatusConflict, gin.H{"message": "A product with this SKU already exists"})
		return
	}
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to update product", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	err := s.store.Delete(c.Request.Context(), id)
	s.metrics.ObserveProductOp("delete", err)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to delete product", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete product"})
		return
	}
	c.Status(http.StatusNoContent)
}

// listUsers returns the static user directory. Placeholder until user
// management moves behind the upstream SCIM API.
func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, []gin.H{
		{"username": "yks", "email": "yks@example.com", "role": "yks_admin"},
		{"username": "yks1", "email": "yks1@example.com", "role": "yks_test"},
		{"username": "bimdevops", "email": "bimdevops@example.com", "role": "yks_user"},
	})
}

func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id"})
		return uuid.Nil, false
	}
	return id, true
}

// requestUsername resolves the acting user for audit columns.
func requestUsername(c *gin.Context) string {
	claims := ginmw.GetClaims(c)
	if claims == nil {
		return "unknown"
	}
	if claims.Username != "" {
		return claims.Username
	}
	if claims.Subject != "" {
		return claims.Subject
	}
	return "unknown"
}
