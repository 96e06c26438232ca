package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/samber/lo"
)

// CartRepository persists the cart's line items as one serialized array under
// a single key.
type CartRepository interface {
	Load(ctx context.Context) ([]model.LineItem, error)
	Save(ctx context.Context, items []model.LineItem) error
	Clear(ctx context.Context) error
}

type cartRepository struct {
	store    storage.KeyValueStore
	key      string
	validate *validator.Validate
}

func NewCartRepository(store storage.KeyValueStore, key string) CartRepository {
	return &cartRepository{
		store:    store,
		key:      key,
		validate: validator.New(),
	}
}

// Load returns the stored items. A missing key yields an empty cart. Entries
// without an id or with a negative price are dropped, quantities are clamped
// into the allowed range.
func (r *cartRepository) Load(ctx context.Context) ([]model.LineItem, error) {
	logger.Debug("Loading cart from storage", map[string]interface{}{
		"key": r.key,
	})

	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return []model.LineItem{}, nil
		}
		logger.Error("Failed to load cart from storage", err, map[string]interface{}{
			"key": r.key,
		})
		return nil, err
	}

	var stored []model.LineItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		logger.Warn("Stored cart is not a valid item array, starting empty", map[string]interface{}{
			"key":   r.key,
			"error": err.Error(),
		})
		return []model.LineItem{}, nil
	}

	seen := make(map[string]bool, len(stored))
	items := make([]model.LineItem, 0, len(stored))
	for _, item := range stored {
		if err := r.validate.Struct(item); err != nil {
			logger.Warn("Dropping invalid stored cart item", map[string]interface{}{
				"item_id": item.ID,
				"error":   err.Error(),
			})
			continue
		}
		if seen[item.ID] {
			logger.Warn("Dropping duplicate stored cart item", map[string]interface{}{
				"item_id": item.ID,
			})
			continue
		}
		seen[item.ID] = true
		item.Quantity = lo.Clamp(item.Quantity, model.MinQuantity, model.MaxQuantity)
		items = append(items, item)
	}

	logger.Debug("Cart loaded from storage", map[string]interface{}{
		"key":   r.key,
		"count": len(items),
	})
	return items, nil
}

func (r *cartRepository) Save(ctx context.Context, items []model.LineItem) error {
	if items == nil {
		items = []model.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := r.store.Set(ctx, r.key, raw); err != nil {
		logger.Error("Failed to save cart to storage", err, map[string]interface{}{
			"key":   r.key,
			"count": len(items),
		})
		return err
	}

	logger.Debug("Cart saved to storage", map[string]interface{}{
		"key":   r.key,
		"count": len(items),
	})
	return nil
}

func (r *cartRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.key); err != nil {
		logger.Error("Failed to clear cart in storage", err, map[string]interface{}{
			"key": r.key,
		})
		return err
	}
	return nil
}
