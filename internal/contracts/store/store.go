// Package store persists contracts, members and the relationship edges
// joining them, and resolves the denormalized member view per contract.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"coverdesk/internal/contracts/metrics"
	"coverdesk/internal/contracts/models"
	"coverdesk/internal/docstore"
	"coverdesk/internal/sequence"
)

// Collection names are the wire contract with the datastore.
const (
	colContracts     = "Contracts"
	colMembers       = "Members"
	colContacts      = "MemberContactDetails"
	colAddresses     = "MemberAddresses"
	colRelationships = "member_contract_relationships"
)

// Store reads and writes contract aggregates.
type Store struct {
	db      docstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New creates a contract store over the document datastore.
func New(db docstore.Store, logger *slog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		db:      db,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("coverdesk/contracts"),
	}
}

// GetContract fetches one contract root by document id.
func (s *Store) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	var c models.Contract
	if err := s.db.Collection(colContracts).Get(ctx, id, &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

// GetContractByNumber fetches one contract root by its human-readable
// number.
func (s *Store) GetContractByNumber(ctx context.Context, number string) (*models.Contract, error) {
	snaps, err := s.db.Collection(colContracts).Documents(ctx, docstore.Query{
		Filters: []docstore.Filter{{Field: "contractNumber", Op: docstore.OpEqual, Value: number}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup contract %s: %w", number, err)
	}
	if len(snaps) == 0 {
		return nil, docstore.ErrNotFound
	}
	var c models.Contract
	if err := snaps[0].DataTo(&c); err != nil {
		return nil, fmt.Errorf("decode contract %s: %w", number, err)
	}
	c.ID = snaps[0].ID()
	return &c, nil
}

// SearchContracts lists contract roots for one page.
func (s *Store) SearchContracts(ctx context.Context, q docstore.Query) ([]models.Contract, error) {
	snaps, err := s.db.Collection(colContracts).Documents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	out := make([]models.Contract, 0, len(snaps))
	for _, snap := range snaps {
		var c models.Contract
		if err := snap.DataTo(&c); err != nil {
			return nil, fmt.Errorf("decode contract %s: %w", snap.ID(), err)
		}
		c.ID = snap.ID()
		out = append(out, c)
	}
	return out, nil
}

// CreateContract writes a new contract root, with the initial main-member
// edge in the same atomic batch when one is supplied.
func (s *Store) CreateContract(ctx context.Context, contract *models.Contract, mainEdge *models.Relationship) error {
	batch := s.db.Batch()
	batch.Set(colContracts, contract.ID, contract)
	if mainEdge != nil {
		batch.Set(colRelationships, mainEdge.ID, mainEdge)
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("create contract %s: %w", contract.ContractNumber, err)
	}
	return nil
}

// UpdateContractStatus rewrites the root's status and updatedAt.
func (s *Store) UpdateContractStatus(ctx context.Context, id, status string) (*models.Contract, error) {
	c, err := s.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	if err := s.db.Collection(colContracts).Set(ctx, id, c); err != nil {
		return nil, fmt.Errorf("update contract %s status: %w", id, err)
	}
	return c, nil
}

// Relationships lists the join edges for a contract number, in query order.
func (s *Store) Relationships(ctx context.Context, contractNumber string) ([]models.Relationship, error) {
	snaps, err := s.db.Collection(colRelationships).Documents(ctx, docstore.Query{
		Filters: []docstore.Filter{{Field: "contract_number", Op: docstore.OpEqual, Value: contractNumber}},
	})
	if err != nil {
		return nil, fmt.Errorf("list relationships for %s: %w", contractNumber, err)
	}
	out := make([]models.Relationship, 0, len(snaps))
	for _, snap := range snaps {
		var rel models.Relationship
		if err := snap.DataTo(&rel); err != nil {
			return nil, fmt.Errorf("decode relationship %s: %w", snap.ID(), err)
		}
		rel.ID = snap.ID()
		out = append(out, rel)
	}
	return out, nil
}

// HasMainMember reports whether a main-member edge already exists for the
// contract number.
func (s *Store) HasMainMember(ctx context.Context, contractNumber string) (bool, error) {
	snaps, err := s.db.Collection(colRelationships).Documents(ctx, docstore.Query{
		Filters: []docstore.Filter{
			{Field: "contract_number", Op: docstore.OpEqual, Value: contractNumber},
			{Field: "role", Op: docstore.OpEqual, Value: string(models.RoleMainMember)},
		},
		Limit: 1,
	})
	if err != nil {
		return false, fmt.Errorf("check main member for %s: %w", contractNumber, err)
	}
	return len(snaps) > 0, nil
}

// CreateRelationship writes one join edge.
func (s *Store) CreateRelationship(ctx context.Context, rel *models.Relationship) error {
	if err := s.db.Collection(colRelationships).Set(ctx, rel.ID, rel); err != nil {
		return fmt.Errorf("create relationship %s: %w", rel.ID, err)
	}
	return nil
}

// GetMember fetches one member root by document id.
func (s *Store) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var m models.Member
	if err := s.db.Collection(colMembers).Get(ctx, id, &m); err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

// FindMemberByIDNumber looks a member up by its externally-unique id number.
func (s *Store) FindMemberByIDNumber(ctx context.Context, idNumber string) (*models.Member, error) {
	snaps, err := s.db.Collection(colMembers).Documents(ctx, docstore.Query{
		Filters: []docstore.Filter{{Field: "idNumber", Op: docstore.OpEqual, Value: idNumber}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup member by id number: %w", err)
	}
	if len(snaps) == 0 {
		return nil, docstore.ErrNotFound
	}
	var m models.Member
	if err := snaps[0].DataTo(&m); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	m.ID = snaps[0].ID()
	return &m, nil
}

// CreateMember writes the member root with its contact and address
// satellites in one atomic batch.
func (s *Store) CreateMember(ctx context.Context, member *models.Member, contacts []models.ContactDetail, address *models.Address) error {
	if contacts == nil {
		contacts = []models.ContactDetail{}
	}
	if address == nil {
		address = &models.Address{}
	}
	batch := s.db.Batch()
	batch.Set(colMembers, member.ID, member)
	batch.Set(colContacts, member.ID, models.ContactSet{Contacts: contacts})
	batch.Set(colAddresses, member.ID, address)
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("create member %s: %w", member.ID, err)
	}
	return nil
}

// ContractNumberScan reports the highest numeric suffix among existing
// contract numbers, for seeding the sequence allocator.
func (s *Store) ContractNumberScan(prefix string) sequence.ScanFunc {
	return func(ctx context.Context) (int64, error) {
		snaps, err := s.db.Collection(colContracts).Documents(ctx, docstore.Query{})
		if err != nil {
			return 0, fmt.Errorf("scan contract numbers: %w", err)
		}
		var max int64
		for _, snap := range snaps {
			var c models.Contract
			if err := snap.DataTo(&c); err != nil {
				continue
			}
			if n, ok := sequence.Suffix(c.ContractNumber, prefix); ok && n > max {
				max = n
			}
		}
		return max, nil
	}
}

// ContractField exposes a contract's field by its wire name, for in-memory
// predicate evaluation and cursor construction.
func ContractField(c models.Contract, field string) any {
	switch field {
	case "contractNumber":
		return c.ContractNumber
	case "policiesId":
		return c.PoliciesID
	case "status":
		return c.Status
	case "createdAt":
		return c.CreatedAt
	case "updatedAt":
		return c.UpdatedAt
	default:
		return nil
	}
}
