// Package store persists the product catalog and answers the reference
// queries that guard deletion: a policy or catering option referenced by a
// contract, or a category or feature referenced by a policy or catering
// option, must not be removed.
package store

import (
	"context"
	"log/slog"

	"coverdesk/internal/catalog/models"
	"coverdesk/internal/docstore"
	"coverdesk/internal/sequence"
)

// Collection names are the wire contract with the datastore. The catering
// collection's lowercase name is legacy.
const (
	colPolicies   = "Policies"
	colCatering   = "catering"
	colCategories = "Categories"
	colFeatures   = "Features"
	colContracts  = "Contracts"
)

// Sequence prefixes for the catalog's human-readable identifiers.
const (
	PolicyPrefix   = "POL"
	CateringPrefix = "CAT"
	CategoryPrefix = "CTG"
	FeaturePrefix  = "FTR"
)

// Store reads and writes catalog records.
type Store struct {
	db     docstore.Store
	logger *slog.Logger
}

// New creates a catalog store over the document datastore.
func New(db docstore.Store, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// GetPolicy fetches one policy by id.
func (s *Store) GetPolicy(ctx context.Context, id string) (*models.Policy, error) {
	var p models.Policy
	if err := s.db.Collection(colPolicies).Get(ctx, id, &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// PolicyExists reports whether a policy document exists under the id.
func (s *Store) PolicyExists(ctx context.Context, id string) (bool, error) {
	var p models.Policy
	err := s.db.Collection(colPolicies).Get(ctx, id, &p)
	if err == docstore.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListPolicies returns every policy, ordered by id.
func (s *Store) ListPolicies(ctx context.Context) ([]models.Policy, error) {
	snaps, err := s.db.Collection(colPolicies).Documents(ctx, docstore.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Policy, 0, len(snaps))
	for _, snap := range snaps {
		var p models.Policy
		if err := snap.DataTo(&p); err != nil {
			return nil, err
		}
		p.ID = snap.ID()
		out = append(out, p)
	}
	return out, nil
}

// CreatePolicy writes a policy under its allocated id.
func (s *Store) CreatePolicy(ctx context.Context, p *models.Policy) error {
	return s.db.Collection(colPolicies).Set(ctx, p.ID, p)
}

// DeletePolicy removes a policy document.
func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	return s.db.Collection(colPolicies).Delete(ctx, id)
}

// PolicyReferenced reports whether any contract references the policy.
func (s *Store) PolicyReferenced(ctx context.Context, id string) (bool, error) {
	return s.anyMatch(ctx, colContracts, docstore.Filter{
		Field: "policiesId", Op: docstore.OpEqual, Value: id,
	})
}

// GetCateringOption fetches one catering option by id.
func (s *Store) GetCateringOption(ctx context.Context, id string) (*models.CateringOption, error) {
	var c models.CateringOption
	if err := s.db.Collection(colCatering).Get(ctx, id, &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

// ListCateringOptions returns every catering option, ordered by id.
func (s *Store) ListCateringOptions(ctx context.Context) ([]models.CateringOption, error) {
	snaps, err := s.db.Collection(colCatering).Documents(ctx, docstore.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]models.CateringOption, 0, len(snaps))
	for _, snap := range snaps {
		var c models.CateringOption
		if err := snap.DataTo(&c); err != nil {
			return nil, err
		}
		c.ID = snap.ID()
		out = append(out, c)
	}
	return out, nil
}

// CreateCateringOption writes a catering option under its allocated id.
func (s *Store) CreateCateringOption(ctx context.Context, c *models.CateringOption) error {
	return s.db.Collection(colCatering).Set(ctx, c.ID, c)
}

// DeleteCateringOption removes a catering option document.
func (s *Store) DeleteCateringOption(ctx context.Context, id string) error {
	return s.db.Collection(colCatering).Delete(ctx, id)
}

// CateringReferenced reports whether any contract carries the catering
// option.
func (s *Store) CateringReferenced(ctx context.Context, id string) (bool, error) {
	return s.anyMatch(ctx, colContracts, docstore.Filter{
		Field: "cateringOptionIds", Op: docstore.OpArrayContains, Value: id,
	})
}

// GetCategory fetches one category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := s.db.Collection(colCategories).Get(ctx, id, &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

// ListCategories returns every category, ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	snaps, err := s.db.Collection(colCategories).Documents(ctx, docstore.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(snaps))
	for _, snap := range snaps {
		var c models.Category
		if err := snap.DataTo(&c); err != nil {
			return nil, err
		}
		c.ID = snap.ID()
		out = append(out, c)
	}
	return out, nil
}

// CreateCategory writes a category under its allocated id.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.db.Collection(colCategories).Set(ctx, c.ID, c)
}

// DeleteCategory removes a category document.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.db.Collection(colCategories).Delete(ctx, id)
}

// CategoryReferenced reports whether any policy or catering option belongs
// to the category.
func (s *Store) CategoryReferenced(ctx context.Context, id string) (bool, error) {
	filter := docstore.Filter{Field: "categoryId", Op: docstore.OpEqual, Value: id}
	if ok, err := s.anyMatch(ctx, colPolicies, filter); err != nil || ok {
		return ok, err
	}
	return s.anyMatch(ctx, colCatering, filter)
}

// GetFeature fetches one feature by id.
func (s *Store) GetFeature(ctx context.Context, id string) (*models.Feature, error) {
	var f models.Feature
	if err := s.db.Collection(colFeatures).Get(ctx, id, &f); err != nil {
		return nil, err
	}
	f.ID = id
	return &f, nil
}

// ListFeatures returns every feature, ordered by id.
func (s *Store) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	snaps, err := s.db.Collection(colFeatures).Documents(ctx, docstore.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Feature, 0, len(snaps))
	for _, snap := range snaps {
		var f models.Feature
		if err := snap.DataTo(&f); err != nil {
			return nil, err
		}
		f.ID = snap.ID()
		out = append(out, f)
	}
	return out, nil
}

// CreateFeature writes a feature under its allocated id.
func (s *Store) CreateFeature(ctx context.Context, f *models.Feature) error {
	return s.db.Collection(colFeatures).Set(ctx, f.ID, f)
}

// DeleteFeature removes a feature document.
func (s *Store) DeleteFeature(ctx context.Context, id string) error {
	return s.db.Collection(colFeatures).Delete(ctx, id)
}

// FeatureReferenced reports whether any policy or catering option lists the
// feature.
func (s *Store) FeatureReferenced(ctx context.Context, id string) (bool, error) {
	filter := docstore.Filter{Field: "features", Op: docstore.OpArrayContains, Value: id}
	if ok, err := s.anyMatch(ctx, colPolicies, filter); err != nil || ok {
		return ok, err
	}
	return s.anyMatch(ctx, colCatering, filter)
}

func (s *Store) anyMatch(ctx context.Context, collection string, f docstore.Filter) (bool, error) {
	snaps, err := s.db.Collection(collection).Documents(ctx, docstore.Query{
		Filters: []docstore.Filter{f},
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(snaps) > 0, nil
}

// ScanFuncs returns the max-suffix scanners the sequence allocators seed
// from, one per catalog prefix. Catalog ids double as document keys, so the
// scan walks snapshot ids.
func (s *Store) ScanFuncs() map[string]sequence.ScanFunc {
	return map[string]sequence.ScanFunc{
		PolicyPrefix:   s.maxSuffix(colPolicies, PolicyPrefix),
		CateringPrefix: s.maxSuffix(colCatering, CateringPrefix),
		CategoryPrefix: s.maxSuffix(colCategories, CategoryPrefix),
		FeaturePrefix:  s.maxSuffix(colFeatures, FeaturePrefix),
	}
}

func (s *Store) maxSuffix(collection, prefix string) sequence.ScanFunc {
	return func(ctx context.Context) (int64, error) {
		snaps, err := s.db.Collection(collection).Documents(ctx, docstore.Query{})
		if err != nil {
			return 0, err
		}
		var max int64
		for _, snap := range snaps {
			if n, ok := sequence.Suffix(snap.ID(), prefix); ok && n > max {
				max = n
			}
		}
		return max, nil
	}
}
