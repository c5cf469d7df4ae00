package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"coverdesk/internal/catalog/models"
	catalogstore "coverdesk/internal/catalog/store"
	"coverdesk/internal/docstore"
	"coverdesk/internal/sequence"
	dErrors "coverdesk/pkg/domain-errors"
)

type CatalogServiceSuite struct {
	suite.Suite
	db    *docstore.MemoryStore
	store *catalogstore.Store
	svc   *Service
	ctx   context.Context
}

func (s *CatalogServiceSuite) SetupTest() {
	s.db = docstore.NewMemory()
	logger := slog.New(slog.DiscardHandler)
	s.store = catalogstore.New(s.db, logger)
	s.svc = New(s.store, sequence.NewScan(s.store.ScanFuncs()), logger)
	s.ctx = context.Background()
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

// referenceContract plants a contract document referencing the given policy
// and catering option ids.
func (s *CatalogServiceSuite) referenceContract(policyID string, cateringIDs []string) {
	s.Require().NoError(s.db.Collection("Contracts").Set(s.ctx, "c1", map[string]any{
		"contractNumber":    "CON001",
		"policiesId":        policyID,
		"cateringOptionIds": cateringIDs,
		"status":            "active",
	}))
}

// TestIdentifiers verifies the human-readable id convention per entity.
func (s *CatalogServiceSuite) TestIdentifiers() {
	policy, err := s.svc.CreatePolicy(s.ctx, models.Policy{Name: "Funeral Plan"})
	s.Require().NoError(err)
	s.Equal("POL001", policy.ID)

	catering, err := s.svc.CreateCateringOption(s.ctx, models.CateringOption{Name: "Full Service"})
	s.Require().NoError(err)
	s.Equal("CAT001", catering.ID)

	category, err := s.svc.CreateCategory(s.ctx, models.Category{Name: "Funeral"})
	s.Require().NoError(err)
	s.Equal("CTG001", category.ID)

	feature, err := s.svc.CreateFeature(s.ctx, models.Feature{Name: "Airtime benefit"})
	s.Require().NoError(err)
	s.Equal("FTR001", feature.ID)

	second, err := s.svc.CreatePolicy(s.ctx, models.Policy{Name: "Accident Plan"})
	s.Require().NoError(err)
	s.Equal("POL002", second.ID)
}

// TestGuardedPolicyDelete verifies a contract-referenced policy cannot be
// deleted and stays intact after the refused attempt.
func (s *CatalogServiceSuite) TestGuardedPolicyDelete() {
	policy, err := s.svc.CreatePolicy(s.ctx, models.Policy{Name: "Funeral Plan", Premium: 199})
	s.Require().NoError(err)
	s.referenceContract(policy.ID, nil)

	err = s.svc.DeletePolicy(s.ctx, policy.ID)
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))

	got, err := s.svc.GetPolicy(s.ctx, policy.ID)
	s.Require().NoError(err, "refused delete leaves the document unchanged")
	s.Equal("Funeral Plan", got.Name)
	s.Equal(199.0, got.Premium)
}

// TestGuardedCateringDelete covers the array-contains reference path.
func (s *CatalogServiceSuite) TestGuardedCateringDelete() {
	catering, err := s.svc.CreateCateringOption(s.ctx, models.CateringOption{Name: "Full Service"})
	s.Require().NoError(err)
	s.referenceContract("POL999", []string{catering.ID})

	err = s.svc.DeleteCateringOption(s.ctx, catering.ID)
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))

	_, err = s.svc.GetCateringOption(s.ctx, catering.ID)
	s.Require().NoError(err)
}

// TestGuardedCategoryDelete verifies policies and catering options both pin
// their category.
func (s *CatalogServiceSuite) TestGuardedCategoryDelete() {
	category, err := s.svc.CreateCategory(s.ctx, models.Category{Name: "Funeral"})
	s.Require().NoError(err)
	_, err = s.svc.CreatePolicy(s.ctx, models.Policy{Name: "Plan", CategoryID: category.ID})
	s.Require().NoError(err)

	err = s.svc.DeleteCategory(s.ctx, category.ID)
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

// TestGuardedFeatureDelete verifies the feature-list reference path.
func (s *CatalogServiceSuite) TestGuardedFeatureDelete() {
	feature, err := s.svc.CreateFeature(s.ctx, models.Feature{Name: "Airtime benefit"})
	s.Require().NoError(err)
	_, err = s.svc.CreateCateringOption(s.ctx, models.CateringOption{Name: "Option", Features: []string{feature.ID}})
	s.Require().NoError(err)

	err = s.svc.DeleteFeature(s.ctx, feature.ID)
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

// TestUnreferencedDelete verifies deletes succeed once nothing points at the
// record.
func (s *CatalogServiceSuite) TestUnreferencedDelete() {
	policy, err := s.svc.CreatePolicy(s.ctx, models.Policy{Name: "Standalone"})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeletePolicy(s.ctx, policy.ID))

	_, err = s.svc.GetPolicy(s.ctx, policy.ID)
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

// TestDeleteUnknown verifies delete of a missing record is not found, not a
// conflict.
func (s *CatalogServiceSuite) TestDeleteUnknown() {
	err := s.svc.DeletePolicy(s.ctx, "POL404")
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

// TestValidation verifies names are required across entities.
func (s *CatalogServiceSuite) TestValidation() {
	_, err := s.svc.CreatePolicy(s.ctx, models.Policy{})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	_, err = s.svc.CreateCateringOption(s.ctx, models.CateringOption{})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	_, err = s.svc.CreateCategory(s.ctx, models.Category{})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	_, err = s.svc.CreateFeature(s.ctx, models.Feature{})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
}
