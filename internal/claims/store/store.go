// Package store persists the claim aggregate across its five collections and
// reconstructs the denormalized view by satellite fan-out.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"coverdesk/internal/claims/metrics"
	"coverdesk/internal/claims/models"
	"coverdesk/internal/docstore"
)

// Collection names are the wire contract with the datastore.
const (
	colClaims    = "Claims"
	colPolicies  = "ClaimPolicies"
	colDeceased  = "ClaimDeceased"
	colBank      = "ClaimBankDetails"
	colDocuments = "ClaimDocuments"
)

// Store reads and writes claim aggregates.
type Store struct {
	db      docstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New creates a claim store over the document datastore.
func New(db docstore.Store, logger *slog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		db:      db,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("coverdesk/claims"),
	}
}

// Get fetches the root record and assembles its satellites. Returns
// docstore.ErrNotFound when the root is absent; absent satellites are
// tolerated.
func (s *Store) Get(ctx context.Context, id string) (*models.AssembledClaim, error) {
	var root models.Claim
	if err := s.db.Collection(colClaims).Get(ctx, id, &root); err != nil {
		return nil, err
	}
	root.ID = id
	return s.assemble(ctx, root), nil
}

// Search lists root records for one page and assembles each. Round trips
// scale as page size times satellite count; satellites within one row are
// fetched concurrently.
func (s *Store) Search(ctx context.Context, q docstore.Query) ([]models.AssembledClaim, error) {
	snaps, err := s.db.Collection(colClaims).Documents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	s.metrics.SearchesTotal.Inc()

	out := make([]models.AssembledClaim, 0, len(snaps))
	for _, snap := range snaps {
		var root models.Claim
		if err := snap.DataTo(&root); err != nil {
			return nil, fmt.Errorf("decode claim %s: %w", snap.ID(), err)
		}
		root.ID = snap.ID()
		out = append(out, *s.assemble(ctx, root))
	}
	return out, nil
}

// Create commits the root and all four satellites as one atomic batch: every
// collection gains a document under the claim id, or none do. Optional
// satellites are written as empty documents so a root never exists without
// its full document set.
func (s *Store) Create(ctx context.Context, claim *models.AssembledClaim) error {
	deceased := claim.Deceased
	if deceased == nil {
		deceased = &models.DeceasedInfo{}
	}
	bank := claim.Bank
	if bank == nil {
		bank = &models.BankDetails{}
	}
	docs := claim.Documents
	if docs == nil {
		docs = []models.DocumentRef{}
	}

	batch := s.db.Batch()
	batch.Set(colClaims, claim.ID, claim.Claim)
	batch.Set(colPolicies, claim.ID, claim.Policy)
	batch.Set(colDeceased, claim.ID, deceased)
	batch.Set(colBank, claim.ID, bank)
	batch.Set(colDocuments, claim.ID, models.DocumentSet{Documents: docs})
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("create claim %s: %w", claim.ID, err)
	}
	s.metrics.BatchCommitsTotal.Inc()
	return nil
}

// UpdateStatus rewrites the root's status and updatedAt. Satellites are
// untouched.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Claim, error) {
	var root models.Claim
	if err := s.db.Collection(colClaims).Get(ctx, id, &root); err != nil {
		return nil, err
	}
	root.ID = id
	root.Status = status
	root.UpdatedAt = time.Now().UTC()
	if err := s.db.Collection(colClaims).Set(ctx, id, root); err != nil {
		return nil, fmt.Errorf("update claim %s status: %w", id, err)
	}
	return &root, nil
}

// UpdateBankDetails replaces the bank satellite for an existing claim.
func (s *Store) UpdateBankDetails(ctx context.Context, id string, bank models.BankDetails) error {
	var root models.Claim
	if err := s.db.Collection(colClaims).Get(ctx, id, &root); err != nil {
		return err
	}
	if err := s.db.Collection(colBank).Set(ctx, id, bank); err != nil {
		return fmt.Errorf("update claim %s bank details: %w", id, err)
	}
	return nil
}

// AppendDocuments appends to the ordered document list of an existing claim.
func (s *Store) AppendDocuments(ctx context.Context, id string, docs []models.DocumentRef) error {
	var root models.Claim
	if err := s.db.Collection(colClaims).Get(ctx, id, &root); err != nil {
		return err
	}
	var set models.DocumentSet
	if err := s.db.Collection(colDocuments).Get(ctx, id, &set); err != nil && err != docstore.ErrNotFound {
		return fmt.Errorf("read claim %s documents: %w", id, err)
	}
	set.Documents = append(set.Documents, docs...)
	if err := s.db.Collection(colDocuments).Set(ctx, id, set); err != nil {
		return fmt.Errorf("append claim %s documents: %w", id, err)
	}
	return nil
}

// RootField exposes a root record's field by its wire name, for in-memory
// predicate evaluation and cursor construction.
func RootField(c models.Claim, field string) any {
	switch field {
	case "contractNumber":
		return c.ContractNumber
	case "claimantName":
		return c.ClaimantName
	case "status":
		return string(c.Status)
	case "createdAt":
		return c.CreatedAt
	case "updatedAt":
		return c.UpdatedAt
	default:
		return nil
	}
}
