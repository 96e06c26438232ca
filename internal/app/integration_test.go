package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/app/controller"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/repository"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/db"
	"github.com/ikkim/storefront/internal/middleware"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/coupon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	Store         *service.CartStore
	Notifications *service.NotificationCenter
}

func newCouponEndpoint(t *testing.T) string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req coupon.ApplyRequest
		json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if req.Code == "WELCOME" {
			json.NewEncoder(w).Encode(coupon.ApplyResponse{Success: true, Discount: 100000})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(coupon.ApplyResponse{Success: false})
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func buildServer(t *testing.T, testDB *gorm.DB, couponURL string) *TestServer {
	gin.SetMode(gin.TestMode)

	couponClient, err := coupon.NewClient(coupon.Config{BaseURL: couponURL})
	require.NoError(t, err)

	cartRepo := repository.NewCartRepository(storage.NewGormStore(testDB), "cart")
	store := service.NewCartStore(context.Background(), cartRepo, couponClient, service.CartStoreOptions{})
	notifications := service.NewNotificationCenter(store, nil)
	t.Cleanup(notifications.Close)

	catalog := service.NewCatalogService(store, []model.Product{
		{ID: "shirt", Name: "Linen Shirt", Price: 350000},
		{ID: "jacket", Name: "Denim Jacket", Price: 700000},
	})

	cartController := controller.NewCartController(store)
	productController := controller.NewProductController(catalog, store)
	notificationController := controller.NewNotificationController(notifications)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	api := router.Group("/api/v1")
	{
		api.GET("/cart", cartController.GetCart)
		api.PUT("/cart/items/:id", cartController.UpdateItem)
		api.DELETE("/cart/items/:id", cartController.RemoveItem)
		api.POST("/cart/coupon", cartController.ApplyCoupon)
		api.POST("/cart/checkout", cartController.Checkout)
		api.POST("/products/:id/cart", productController.AddToCart)
		api.GET("/notifications", notificationController.GetNotifications)
	}

	return &TestServer{Router: router, DB: testDB, Store: store, Notifications: notifications}
}

func (s *TestServer) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func cartField(resp map[string]interface{}, field string) interface{} {
	return resp["cart"].(map[string]interface{})[field]
}

func TestIntegration_CartFlow(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	couponURL := newCouponEndpoint(t)
	server := buildServer(t, testDB, couponURL)

	// Two products, one without a chosen variant
	code, resp := server.do(t, http.MethodPost, "/api/v1/products/shirt/cart", `{"color":"white","size":"M"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(30000), cartField(resp, "shipping"))

	code, _ = server.do(t, http.MethodPost, "/api/v1/products/jacket/cart", "")
	require.Equal(t, http.StatusOK, code)

	// 350000×2 + 700000 crosses the free shipping threshold
	code, resp = server.do(t, http.MethodPut, "/api/v1/cart/items/shirt", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1400000), cartField(resp, "total"))
	assert.Equal(t, float64(0), cartField(resp, "shipping"))

	// Out of range is ignored
	code, resp = server.do(t, http.MethodPut, "/api/v1/cart/items/shirt", `{"quantity":11}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1400000), cartField(resp, "total"))

	// Coupons
	code, _ = server.do(t, http.MethodPost, "/api/v1/cart/coupon", `{"code":"BAD"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = server.do(t, http.MethodPost, "/api/v1/cart/coupon", `{"code":"WELCOME"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1300000), cartField(resp, "payable"))

	// The jacket has no variant yet
	code, resp = server.do(t, http.MethodPost, "/api/v1/cart/checkout", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []interface{}{"jacket"}, resp["item_ids"])

	code, _ = server.do(t, http.MethodPut, "/api/v1/cart/items/jacket", `{"color":"blue","size":"L"}`)
	require.Equal(t, http.StatusOK, code)

	code, resp = server.do(t, http.MethodPost, "/api/v1/cart/checkout", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/checkout", resp["redirect"])

	// Rejected coupon and refused checkout both left a notification
	code, resp = server.do(t, http.MethodGet, "/api/v1/notifications", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), resp["count"])

	// A fresh store on the same database restores the items, not the discount
	restarted := buildServer(t, testDB, couponURL)
	summary := restarted.Store.Snapshot()
	assert.Equal(t, int64(1400000), summary.Total)
	assert.Zero(t, summary.Discount)
	require.Len(t, summary.Items, 2)
	assert.Equal(t, "blue", summary.Items[1].Color)
}

func TestIntegration_RemoveRequiresConfirmation(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	server := buildServer(t, testDB, newCouponEndpoint(t))

	code, _ := server.do(t, http.MethodPost, "/api/v1/products/shirt/cart", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = server.do(t, http.MethodDelete, "/api/v1/cart/items/shirt", "")
	assert.Equal(t, http.StatusConflict, code)

	code, resp := server.do(t, http.MethodDelete, "/api/v1/cart/items/shirt?confirm=true", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), cartField(resp, "count"))

	var entry model.KVEntry
	require.NoError(t, testDB.Where("entry_key = ?", "cart").First(&entry).Error)
	assert.JSONEq(t, `[]`, string(entry.Value))
}
