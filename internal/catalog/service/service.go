// Package service implements catalog use cases: CRUD over policies, catering
// options, categories and features, with reference-guarded deletion.
package service

import (
	"context"
	"log/slog"
	"strings"

	"coverdesk/internal/catalog/models"
	catalogstore "coverdesk/internal/catalog/store"
	"coverdesk/internal/docstore"
	"coverdesk/internal/sequence"
	dErrors "coverdesk/pkg/domain-errors"
)

// Store is the catalog persistence boundary the service consumes.
type Store interface {
	GetPolicy(ctx context.Context, id string) (*models.Policy, error)
	ListPolicies(ctx context.Context) ([]models.Policy, error)
	CreatePolicy(ctx context.Context, p *models.Policy) error
	DeletePolicy(ctx context.Context, id string) error
	PolicyReferenced(ctx context.Context, id string) (bool, error)

	GetCateringOption(ctx context.Context, id string) (*models.CateringOption, error)
	ListCateringOptions(ctx context.Context) ([]models.CateringOption, error)
	CreateCateringOption(ctx context.Context, c *models.CateringOption) error
	DeleteCateringOption(ctx context.Context, id string) error
	CateringReferenced(ctx context.Context, id string) (bool, error)

	GetCategory(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CategoryReferenced(ctx context.Context, id string) (bool, error)

	GetFeature(ctx context.Context, id string) (*models.Feature, error)
	ListFeatures(ctx context.Context) ([]models.Feature, error)
	CreateFeature(ctx context.Context, f *models.Feature) error
	DeleteFeature(ctx context.Context, id string) error
	FeatureReferenced(ctx context.Context, id string) (bool, error)
}

// Service implements catalog use cases over the store.
type Service struct {
	store     Store
	allocator sequence.Allocator
	logger    *slog.Logger
}

// New creates the catalog service.
func New(store Store, allocator sequence.Allocator, logger *slog.Logger) *Service {
	return &Service{store: store, allocator: allocator, logger: logger}
}

// CreatePolicy allocates a policy id and writes the policy.
func (s *Service) CreatePolicy(ctx context.Context, p models.Policy) (*models.Policy, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, dErrors.NewValidation("policy is invalid", map[string]string{"name": "name is required"})
	}
	id, err := s.allocator.Next(ctx, catalogstore.PolicyPrefix)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to allocate policy id", err)
	}
	p.ID = id
	if p.Features == nil {
		p.Features = []string{}
	}
	if err := s.store.CreatePolicy(ctx, &p); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create policy", err)
	}
	return &p, nil
}

// GetPolicy returns one policy.
func (s *Service) GetPolicy(ctx context.Context, id string) (*models.Policy, error) {
	p, err := s.store.GetPolicy(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "policy", id)
	}
	return p, nil
}

// ListPolicies returns the full policy catalog.
func (s *Service) ListPolicies(ctx context.Context) ([]models.Policy, error) {
	out, err := s.store.ListPolicies(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list policies", err)
	}
	return out, nil
}

// DeletePolicy removes a policy unless a contract references it. The
// reference check and the delete are two operations; a contract created in
// between survives with a dangling reference.
func (s *Service) DeletePolicy(ctx context.Context, id string) error {
	if _, err := s.store.GetPolicy(ctx, id); err != nil {
		return notFoundOrInternal(err, "policy", id)
	}
	referenced, err := s.store.PolicyReferenced(ctx, id)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to check policy references", err)
	}
	if referenced {
		return dErrors.Newf(dErrors.CodeConflict, "policy %s is referenced by a contract and cannot be deleted", id)
	}
	if err := s.store.DeletePolicy(ctx, id); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete policy", err)
	}
	return nil
}

// CreateCateringOption allocates a catering id and writes the option.
func (s *Service) CreateCateringOption(ctx context.Context, c models.CateringOption) (*models.CateringOption, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, dErrors.NewValidation("catering option is invalid", map[string]string{"name": "name is required"})
	}
	id, err := s.allocator.Next(ctx, catalogstore.CateringPrefix)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to allocate catering id", err)
	}
	c.ID = id
	if c.Features == nil {
		c.Features = []string{}
	}
	if err := s.store.CreateCateringOption(ctx, &c); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create catering option", err)
	}
	return &c, nil
}

// GetCateringOption returns one catering option.
func (s *Service) GetCateringOption(ctx context.Context, id string) (*models.CateringOption, error) {
	c, err := s.store.GetCateringOption(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "catering option", id)
	}
	return c, nil
}

// ListCateringOptions returns the full catering catalog.
func (s *Service) ListCateringOptions(ctx context.Context) ([]models.CateringOption, error) {
	out, err := s.store.ListCateringOptions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list catering options", err)
	}
	return out, nil
}

// DeleteCateringOption removes a catering option unless a contract carries
// it.
func (s *Service) DeleteCateringOption(ctx context.Context, id string) error {
	if _, err := s.store.GetCateringOption(ctx, id); err != nil {
		return notFoundOrInternal(err, "catering option", id)
	}
	referenced, err := s.store.CateringReferenced(ctx, id)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to check catering references", err)
	}
	if referenced {
		return dErrors.Newf(dErrors.CodeConflict, "catering option %s is referenced by a contract and cannot be deleted", id)
	}
	if err := s.store.DeleteCateringOption(ctx, id); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete catering option", err)
	}
	return nil
}

// CreateCategory allocates a category id and writes the category.
func (s *Service) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, dErrors.NewValidation("category is invalid", map[string]string{"name": "name is required"})
	}
	id, err := s.allocator.Next(ctx, catalogstore.CategoryPrefix)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to allocate category id", err)
	}
	c.ID = id
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create category", err)
	}
	return &c, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	out, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list categories", err)
	}
	return out, nil
}

// DeleteCategory removes a category unless a policy or catering option
// belongs to it.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return notFoundOrInternal(err, "category", id)
	}
	referenced, err := s.store.CategoryReferenced(ctx, id)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to check category references", err)
	}
	if referenced {
		return dErrors.Newf(dErrors.CodeConflict, "category %s is referenced and cannot be deleted", id)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete category", err)
	}
	return nil
}

// CreateFeature allocates a feature id and writes the feature.
func (s *Service) CreateFeature(ctx context.Context, f models.Feature) (*models.Feature, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, dErrors.NewValidation("feature is invalid", map[string]string{"name": "name is required"})
	}
	id, err := s.allocator.Next(ctx, catalogstore.FeaturePrefix)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to allocate feature id", err)
	}
	f.ID = id
	if err := s.store.CreateFeature(ctx, &f); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create feature", err)
	}
	return &f, nil
}

// ListFeatures returns every feature.
func (s *Service) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	out, err := s.store.ListFeatures(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list features", err)
	}
	return out, nil
}

// DeleteFeature removes a feature unless a policy or catering option lists
// it.
func (s *Service) DeleteFeature(ctx context.Context, id string) error {
	if _, err := s.store.GetFeature(ctx, id); err != nil {
		return notFoundOrInternal(err, "feature", id)
	}
	referenced, err := s.store.FeatureReferenced(ctx, id)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to check feature references", err)
	}
	if referenced {
		return dErrors.Newf(dErrors.CodeConflict, "feature %s is referenced and cannot be deleted", id)
	}
	if err := s.store.DeleteFeature(ctx, id); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete feature", err)
	}
	return nil
}

func notFoundOrInternal(err error, kind, id string) error {
	if err == docstore.ErrNotFound {
		return dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", kind, id)
	}
	return dErrors.Wrap(dErrors.CodeInternal, "failed to fetch "+kind, err)
}
