package service

import (
	"errors"
	"sync"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/samber/lo"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// CatalogService is the product grid: products by id, kept in the order they
// were loaded, with an add-to-cart action feeding the CartStore.
type CatalogService interface {
	List() []model.Product
	Get(id string) (*model.Product, error)
	Replace(products []model.Product)
	AddToCart(productID, color, size string) error
}

type catalogService struct {
	mu       sync.RWMutex
	order    []string
	products map[string]model.Product
	cart     *CartStore
}

func NewCatalogService(cart *CartStore, products []model.Product) CatalogService {
	s := &catalogService{cart: cart}
	s.Replace(products)
	return s
}

func (s *catalogService) List() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(s.order, func(id string, _ int) model.Product {
		return s.products[id]
	})
}

func (s *catalogService) Get(id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Replace swaps the whole catalog. Later duplicates of an id win, keeping
// the position of the first.
func (s *catalogService) Replace(products []model.Product) {
	byID := make(map[string]model.Product, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, seen := byID[p.ID]; !seen {
			order = append(order, p.ID)
		}
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.products = byID
	s.order = order
	s.mu.Unlock()

	logger.Info("Catalog replaced", map[string]interface{}{
		"count": len(order),
	})
}

func (s *catalogService) AddToCart(productID, color, size string) error {
	product, err := s.Get(productID)
	if err != nil {
		logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	s.cart.Add(product.ToLineItem(color, size))

	logger.Info("Product added to cart", map[string]interface{}{
		"product_id": productID,
		"color":      color,
		"size":       size,
	})
	return nil
}
