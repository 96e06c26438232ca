package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/errors"
	"github.com/ikkim/storefront/internal/middleware"
)

type ProductController struct {
	catalog service.CatalogService
	store   *service.CartStore
}

func NewProductController(catalog service.CatalogService, store *service.CartStore) *ProductController {
	return &ProductController{
		catalog: catalog,
		store:   store,
	}
}

type AddProductToCartRequest struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// ListProducts returns the product grid
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	products := ctrl.catalog.List()
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	product, err := ctrl.catalog.Get(c.Param("id"))
	if err != nil {
		errors.ParseAndRespond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// AddToCart adds one unit of the product to the cart
// POST /api/v1/products/:id/cart
func (ctrl *ProductController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	productID := c.Param("id")

	var req AddProductToCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid add to cart request", map[string]interface{}{
				"product_id": productID,
				"error":      err.Error(),
			})
			errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
			return
		}
	}

	if err := ctrl.catalog.AddToCart(productID, req.Color, req.Size); err != nil {
		if !stderrors.Is(err, service.ErrProductNotFound) {
			log.Error("Failed to add product to cart", err, map[string]interface{}{
				"product_id": productID,
			})
		}
		errors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product added to cart",
		"cart":    ctrl.store.Snapshot(),
	})
}
