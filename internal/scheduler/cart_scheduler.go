package scheduler

import (
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

// PurgeSpec expires notifications once a second.
const PurgeSpec = "@every 1s"

// ProductLoader fetches the full product list, e.g. from a catalog sheet.
type ProductLoader func() ([]model.Product, error)

// CartScheduler runs the periodic jobs of the storefront: catalog reloads and
// notification expiry.
type CartScheduler struct {
	cron          *cron.Cron
	catalog       service.CatalogService
	loader        ProductLoader
	catalogSpec   string
	notifications *service.NotificationCenter
}

// NewCartScheduler creates the scheduler. A nil loader or empty catalogSpec
// disables catalog reloads; a nil notifications disables purging.
func NewCartScheduler(catalog service.CatalogService, loader ProductLoader, catalogSpec string, notifications *service.NotificationCenter) *CartScheduler {
	return &CartScheduler{
		cron:          cron.New(),
		catalog:       catalog,
		loader:        loader,
		catalogSpec:   catalogSpec,
		notifications: notifications,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *CartScheduler) Start() error {
	if s.loader != nil && s.catalogSpec != "" {
		if _, err := s.cron.AddFunc(s.catalogSpec, func() { s.ReloadCatalog() }); err != nil {
			logger.Error("Failed to add cron job for catalog reload", err, map[string]interface{}{
				"spec": s.catalogSpec,
			})
			return err
		}
	}

	if s.notifications != nil {
		if _, err := s.cron.AddFunc(PurgeSpec, func() { s.notifications.Purge() }); err != nil {
			logger.Error("Failed to add cron job for notification purge", err)
			return err
		}
	}

	s.cron.Start()
	logger.Info("Cart scheduler started successfully", map[string]interface{}{
		"catalog_spec": s.catalogSpec,
		"jobs":         len(s.cron.Entries()),
	})
	return nil
}

// ReloadCatalog replaces the catalog with a fresh load. A failed load keeps
// the current products.
func (s *CartScheduler) ReloadCatalog() bool {
	logger.Info("Starting scheduled catalog reload", nil)

	products, err := s.loader()
	if err != nil {
		logger.Error("Failed to reload catalog from scheduler", err)
		return false
	}

	s.catalog.Replace(products)
	logger.Info("Successfully reloaded catalog from scheduler", map[string]interface{}{
		"count": len(products),
	})
	return true
}

// Stop halts the runner and waits for running jobs.
func (s *CartScheduler) Stop() {
	logger.Info("Stopping cart scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Cart scheduler stopped", nil)
}
