package store

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"coverdesk/internal/claims/models"
	"coverdesk/internal/docstore"
)

// assemble enriches one root record with every satellite, fetching all four
// concurrently. A missing satellite is an absent sub-record, never an error;
// the mandatory policy snapshot surfaces zero-valued when missing. Transport
// failures on a satellite are logged and treated as absent so one broken
// lookup cannot fail the whole aggregate.
func (s *Store) assemble(ctx context.Context, root models.Claim) *models.AssembledClaim {
	ctx, span := s.tracer.Start(ctx, "claims.assemble")
	defer span.End()
	start := time.Now()

	out := &models.AssembledClaim{Claim: root, Documents: []models.DocumentRef{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var policy models.PolicySnapshot
		if ok := s.satellite(gctx, colPolicies, root.ID, "policy", &policy); ok {
			out.Policy = policy
		}
		return nil
	})
	g.Go(func() error {
		var deceased models.DeceasedInfo
		if ok := s.satellite(gctx, colDeceased, root.ID, "deceased", &deceased); ok {
			out.Deceased = &deceased
		}
		return nil
	})
	g.Go(func() error {
		var bank models.BankDetails
		if ok := s.satellite(gctx, colBank, root.ID, "bank", &bank); ok {
			out.Bank = &bank
		}
		return nil
	})
	g.Go(func() error {
		var set models.DocumentSet
		if ok := s.satellite(gctx, colDocuments, root.ID, "documents", &set); ok && set.Documents != nil {
			out.Documents = set.Documents
		}
		return nil
	})
	_ = g.Wait()

	s.metrics.ObserveFanout(time.Since(start))
	return out
}

// satellite fetches one sub-record, reporting whether it was found.
func (s *Store) satellite(ctx context.Context, collection, id, name string, dst any) bool {
	err := s.db.Collection(collection).Get(ctx, id, dst)
	switch {
	case err == nil:
		return true
	case err == docstore.ErrNotFound:
		s.metrics.SatelliteAbsent(name)
		return false
	default:
		s.logger.WarnContext(ctx, "satellite lookup failed, treating as absent",
			"claim_id", id,
			"satellite", name,
			"error", err,
		)
		s.metrics.SatelliteAbsent(name)
		return false
	}
}
