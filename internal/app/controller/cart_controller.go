package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/errors"
	"github.com/ikkim/storefront/internal/middleware"
)

type CartController struct {
	store *service.CartStore
}

func NewCartController(store *service.CartStore) *CartController {
	return &CartController{
		store: store,
	}
}

type AddItemRequest struct {
	ID       string `json:"id" binding:"required"`
	Price    int64  `json:"price" binding:"gte=0"`
	Quantity int    `json:"quantity" binding:"gte=0"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

// UpdateItemRequest changes the quantity, the variant, or both. Omitted
// fields are left alone.
type UpdateItemRequest struct {
	Quantity *int    `json:"quantity"`
	Color    *string `json:"color"`
	Size     *string `json:"size"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart returns the cart summary
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	summary := ctrl.store.Snapshot()

	middleware.GetLoggerFromContext(c).Debug("Cart fetched", map[string]interface{}{
		"count": summary.Count,
		"total": summary.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": summary,
	})
}

// AddItem puts a line into the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add item request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	changed := ctrl.store.Add(model.LineItem{
		ID:       req.ID,
		Price:    req.Price,
		Quantity: req.Quantity,
		Color:    req.Color,
		Size:     req.Size,
		Name:     req.Name,
		Image:    req.Image,
	})

	log.Info("Add item handled", map[string]interface{}{
		"item_id": req.ID,
		"changed": changed,
	})
	ctrl.respondCart(c, changed)
}

// IncreaseItem adds one to the item's quantity
// POST /api/v1/cart/items/:id/increase
func (ctrl *CartController) IncreaseItem(c *gin.Context) {
	id, ok := ctrl.requireItem(c)
	if !ok {
		return
	}
	ctrl.respondCart(c, ctrl.store.Increase(id))
}

// DecreaseItem removes one from the item's quantity
// POST /api/v1/cart/items/:id/decrease
func (ctrl *CartController) DecreaseItem(c *gin.Context) {
	id, ok := ctrl.requireItem(c)
	if !ok {
		return
	}
	ctrl.respondCart(c, ctrl.store.Decrease(id))
}

// UpdateItem sets the quantity and/or variant. Out of range quantities are
// ignored and answered with the unchanged cart.
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := ctrl.requireItem(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update item request", map[string]interface{}{
			"item_id": id,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	changed := false
	if req.Quantity != nil {
		changed = ctrl.store.SetQuantity(id, *req.Quantity)
	}
	if req.Color != nil || req.Size != nil {
		current := ctrl.currentItem(id)
		color, size := current.Color, current.Size
		if req.Color != nil {
			color = *req.Color
		}
		if req.Size != nil {
			size = *req.Size
		}
		changed = ctrl.store.SetVariant(id, color, size) || changed
	}

	ctrl.respondCart(c, changed)
}

// RemoveItem deletes a line once the user confirmed
// DELETE /api/v1/cart/items/:id?confirm=true
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	id, ok := ctrl.requireItem(c)
	if !ok {
		return
	}

	confirmed := c.Query("confirm") == "true"
	removed := ctrl.store.Remove(id, service.ConfirmFunc(func(string) bool {
		return confirmed
	}))
	if !removed && !confirmed {
		errors.RespondWithError(c, http.StatusConflict, errors.CartRemoveDeclined, service.RemoveQuestion)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Cart item removed", map[string]interface{}{
		"item_id": id,
	})
	ctrl.respondCart(c, removed)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	ctrl.respondCart(c, ctrl.store.Clear())
}

// ApplyCoupon validates a discount code against the coupon service
// POST /api/v1/cart/coupon
func (ctrl *CartController) ApplyCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid coupon request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "A discount code is required")
		return
	}

	if err := ctrl.store.ApplyCoupon(c.Request.Context(), req.Code); err != nil {
		info := errors.ParseAndRespond(c, err)
		log.Warn("Coupon not applied", map[string]interface{}{
			"code":   req.Code,
			"status": info.Status,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": service.MsgCouponApplied,
		"cart":    ctrl.store.Snapshot(),
	})
}

// Checkout validates the cart and returns where to navigate
// POST /api/v1/cart/checkout
func (ctrl *CartController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var redirect string
	err := ctrl.store.Checkout(service.NavigatorFunc(func(path string) {
		redirect = path
	}))
	if err != nil {
		var verr *service.ValidationError
		if !stderrors.As(err, &verr) {
			log.Error("Checkout failed", err)
			errors.InternalError(c, "")
			return
		}

		info := errors.ParseError(err)
		log.Warn("Checkout refused", map[string]interface{}{
			"code":     info.Code,
			"item_ids": verr.ItemIDs,
		})
		c.JSON(info.Status, gin.H{
			"error":    info.Code,
			"message":  info.Message,
			"item_ids": verr.ItemIDs,
		})
		return
	}

	log.Info("Checkout accepted", map[string]interface{}{
		"redirect": redirect,
	})
	c.JSON(http.StatusOK, gin.H{
		"redirect": redirect,
		"cart":     ctrl.store.Snapshot(),
	})
}

func (ctrl *CartController) requireItem(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !ctrl.store.Has(id) {
		middleware.GetLoggerFromContext(c).Warn("Cart item not found", map[string]interface{}{
			"item_id": id,
		})
		errors.NotFound(c, errors.CartItemNotFound, "Item not found in cart")
		return "", false
	}
	return id, true
}

func (ctrl *CartController) currentItem(id string) model.LineItem {
	for _, item := range ctrl.store.Items() {
		if item.ID == id {
			return item
		}
	}
	return model.LineItem{}
}

func (ctrl *CartController) respondCart(c *gin.Context, changed bool) {
	c.JSON(http.StatusOK, gin.H{
		"changed": changed,
		"cart":    ctrl.store.Snapshot(),
	})
}
