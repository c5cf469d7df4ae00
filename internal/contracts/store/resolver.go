package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"coverdesk/internal/contracts/models"
	"coverdesk/internal/docstore"
)

// ResolveMembers reconstructs a contract's member set: one equality query on
// the join collection, then a concurrent fan-out per distinct member id for
// the member root and its contact/address satellites. Members are
// partitioned by the role on their edge.
//
// If the join collection unexpectedly holds more than one main-member edge
// for the contract, the first edge in query order wins and the rest are
// ignored; the conflict is logged and counted rather than surfaced.
func (s *Store) ResolveMembers(ctx context.Context, contractNumber string) (*models.ContractMembers, error) {
	ctx, span := s.tracer.Start(ctx, "contracts.resolve_members")
	defer span.End()
	start := time.Now()

	edges, err := s.Relationships(ctx, contractNumber)
	if err != nil {
		return nil, err
	}

	// A member can in principle appear under multiple roles; fetch each
	// distinct member once.
	var mu sync.Mutex
	resolved := make(map[string]*models.ResolvedMember)
	g, gctx := errgroup.WithContext(ctx)
	for _, edge := range edges {
		memberID := edge.MemberID
		mu.Lock()
		_, seen := resolved[memberID]
		if !seen {
			resolved[memberID] = nil
		}
		mu.Unlock()
		if seen {
			continue
		}
		g.Go(func() error {
			member := s.resolveMember(gctx, memberID)
			mu.Lock()
			resolved[memberID] = member
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := &models.ContractMembers{
		Dependents:    []models.ResolvedMember{},
		Beneficiaries: []models.ResolvedMember{},
	}
	for _, edge := range edges {
		member := resolved[edge.MemberID]
		if member == nil {
			// Dangling edge: the member root is gone. Skip rather than fail
			// the whole resolution.
			s.logger.WarnContext(ctx, "relationship edge references missing member",
				"contract_number", contractNumber,
				"member_id", edge.MemberID,
			)
			continue
		}
		withRole := *member
		withRole.Role = edge.Role
		switch edge.Role {
		case models.RoleMainMember:
			if out.Main != nil {
				s.metrics.MainConflicts.Inc()
				s.logger.WarnContext(ctx, "multiple main-member edges for contract, keeping first",
					"contract_number", contractNumber,
					"ignored_member_id", edge.MemberID,
				)
				continue
			}
			out.Main = &withRole
		case models.RoleBeneficiary:
			out.Beneficiaries = append(out.Beneficiaries, withRole)
		default:
			out.Dependents = append(out.Dependents, withRole)
		}
	}

	s.metrics.ObserveResolve(time.Since(start), len(edges))
	return out, nil
}

// ResolveMember assembles one member with its satellites, for the members
// API. Returns docstore.ErrNotFound when the member root is absent.
func (s *Store) ResolveMember(ctx context.Context, memberID string) (*models.ResolvedMember, error) {
	member := s.resolveMember(ctx, memberID)
	if member == nil {
		return nil, docstore.ErrNotFound
	}
	return member, nil
}

// resolveMember fetches the member root and both satellites concurrently.
// Absent satellites resolve to empty values; an absent root resolves the
// whole member to nil.
func (s *Store) resolveMember(ctx context.Context, memberID string) *models.ResolvedMember {
	var (
		member   models.Member
		contacts models.ContactSet
		address  models.Address

		rootMissing bool
		hasAddress  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.db.Collection(colMembers).Get(gctx, memberID, &member)
		if err == docstore.ErrNotFound {
			rootMissing = true
			return nil
		}
		if err != nil {
			s.logger.WarnContext(gctx, "member lookup failed", "member_id", memberID, "error", err)
			rootMissing = true
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.Collection(colContacts).Get(gctx, memberID, &contacts); err != nil && err != docstore.ErrNotFound {
			s.logger.WarnContext(gctx, "member contacts lookup failed", "member_id", memberID, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.Collection(colAddresses).Get(gctx, memberID, &address)
		if err == nil {
			hasAddress = true
			return nil
		}
		if err != docstore.ErrNotFound {
			s.logger.WarnContext(gctx, "member address lookup failed", "member_id", memberID, "error", err)
		}
		return nil
	})
	_ = g.Wait()

	if rootMissing {
		return nil
	}
	member.ID = memberID

	out := &models.ResolvedMember{Member: member, Contacts: contacts.Contacts}
	if out.Contacts == nil {
		out.Contacts = []models.ContactDetail{}
	}
	if hasAddress {
		out.Address = &address
	}
	return out
}
