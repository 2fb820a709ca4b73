// Package service defines the interfaces for the application's services.
package service

import (
	"context"
	"time"

	"github.com/homologa-digital/homologa/internal/model"
)

// CatalogStore is the contract for loading catalog snapshots. A snapshot is
// fully loaded before any matching or classification call and never mutated
// afterwards.
type CatalogStore interface {
	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	// Snapshot loading
	LoadCatalog(ctx context.Context, categorySlug string) (*model.Catalog, error)

	// Catalog editing
	SaveElement(ctx context.Context, element *model.Element) error
	SaveTier(ctx context.Context, tier *model.TariffTier) error
	SaveInclusion(ctx context.Context, inclusion *model.TierInclusion) error
	SaveWarning(ctx context.Context, warning *model.Warning) error
	DeleteInclusionsByCategory(ctx context.Context, categoryID int64) error
	DeleteWarningsByCategory(ctx context.Context, categoryID int64) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// CaseStore persists FSM case states. The JSON shape of model.CaseState is
// the wire contract and must round-trip losslessly.
type CaseStore interface {
	SaveCase(ctx context.Context, state *model.CaseState) error
	GetCase(ctx context.Context, caseID string) (*model.CaseState, error)
	ListCases(ctx context.Context, step *model.Step) ([]model.CaseState, error)
	DeleteCase(ctx context.Context, caseID string) error
}

// RetryOptions configures retry behavior for an operation.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
