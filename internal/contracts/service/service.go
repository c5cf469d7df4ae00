// Package service orchestrates contract and member operations: creation with
// allocated contract numbers, role-tagged membership, and resolved reads.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"coverdesk/internal/contracts/models"
	contractstore "coverdesk/internal/contracts/store"
	"coverdesk/internal/docstore"
	"coverdesk/internal/events"
	"coverdesk/internal/search"
	"coverdesk/internal/sequence"
	dErrors "coverdesk/pkg/domain-errors"
)

// ContractNumberPrefix is the sequence prefix for contract numbers.
const ContractNumberPrefix = "CON"

// Store is the contract persistence boundary the service consumes.
type Store interface {
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	GetContractByNumber(ctx context.Context, number string) (*models.Contract, error)
	SearchContracts(ctx context.Context, q docstore.Query) ([]models.Contract, error)
	CreateContract(ctx context.Context, contract *models.Contract, mainEdge *models.Relationship) error
	UpdateContractStatus(ctx context.Context, id, status string) (*models.Contract, error)
	HasMainMember(ctx context.Context, contractNumber string) (bool, error)
	CreateRelationship(ctx context.Context, rel *models.Relationship) error
	ResolveMembers(ctx context.Context, contractNumber string) (*models.ContractMembers, error)
	GetMember(ctx context.Context, id string) (*models.Member, error)
	FindMemberByIDNumber(ctx context.Context, idNumber string) (*models.Member, error)
	CreateMember(ctx context.Context, member *models.Member, contacts []models.ContactDetail, address *models.Address) error
	ResolveMember(ctx context.Context, memberID string) (*models.ResolvedMember, error)
}

// PolicyChecker verifies a referenced policy exists; implemented by the
// catalog store.
type PolicyChecker interface {
	PolicyExists(ctx context.Context, id string) (bool, error)
}

// Publisher sends lifecycle events; failures are logged, never surfaced.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Service implements contract use cases over the store.
type Service struct {
	store           Store
	policies        PolicyChecker
	allocator       sequence.Allocator
	publisher       Publisher
	logger          *slog.Logger
	defaultPageSize int
	maxPageSize     int
}

// New creates the contract service.
func New(store Store, policies PolicyChecker, allocator sequence.Allocator, publisher Publisher, logger *slog.Logger, defaultPageSize, maxPageSize int) *Service {
	return &Service{
		store:           store,
		policies:        policies,
		allocator:       allocator,
		publisher:       publisher,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// CreateContractInput is the contract creation payload.
type CreateContractInput struct {
	PoliciesID        string
	CateringOptionIDs []string
	Status            string
	MainMemberID      string
}

// CreateContract allocates a contract number, validates references, and
// writes the root (plus the initial main-member edge, when supplied) in one
// atomic batch.
func (s *Service) CreateContract(ctx context.Context, input CreateContractInput) (*models.Contract, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(input.PoliciesID) == "" {
		fields["policiesId"] = "policy reference is required"
	} else {
		exists, err := s.policies.PolicyExists(ctx, input.PoliciesID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to verify policy reference", err)
		}
		if !exists {
			fields["policiesId"] = "referenced policy does not exist"
		}
	}
	if input.MainMemberID != "" {
		if _, err := s.store.GetMember(ctx, input.MainMemberID); err != nil {
			if err == docstore.ErrNotFound {
				fields["mainMemberId"] = "referenced member does not exist"
			} else {
				return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to verify member reference", err)
			}
		}
	}
	if len(fields) > 0 {
		return nil, dErrors.NewValidation("contract is invalid", fields)
	}

	number, err := s.allocator.Next(ctx, ContractNumberPrefix)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to allocate contract number", err)
	}

	now := time.Now().UTC()
	status := input.Status
	if status == "" {
		status = "active"
	}
	contract := &models.Contract{
		ID:                uuid.NewString(),
		ContractNumber:    number,
		PoliciesID:        input.PoliciesID,
		CateringOptionIDs: append([]string{}, input.CateringOptionIDs...),
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var mainEdge *models.Relationship
	if input.MainMemberID != "" {
		mainEdge = &models.Relationship{
			ID:             uuid.NewString(),
			MemberID:       input.MainMemberID,
			ContractNumber: number,
			Role:           models.RoleMainMember,
			CreatedAt:      now,
		}
	}

	if err := s.store.CreateContract(ctx, contract, mainEdge); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create contract", err)
	}

	s.publish(ctx, events.Event{
		Type:        events.ContractCreated,
		AggregateID: number,
		OccurredAt:  now,
		Payload:     map[string]any{"policiesId": contract.PoliciesID, "status": contract.Status},
	})
	return contract, nil
}

// Get returns the contract with its member set resolved and partitioned,
// looked up by its human-readable contract number.
func (s *Service) Get(ctx context.Context, contractNumber string) (*models.AssembledContract, error) {
	contract, err := s.store.GetContractByNumber(ctx, contractNumber)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "contract %s not found", contractNumber)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch contract", err)
	}
	members, err := s.store.ResolveMembers(ctx, contract.ContractNumber)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve contract members", err)
	}
	return &models.AssembledContract{Contract: *contract, Members: *members}, nil
}

// UpdateStatus rewrites a contract's status.
func (s *Service) UpdateStatus(ctx context.Context, contractNumber, status string) (*models.Contract, error) {
	if strings.TrimSpace(status) == "" {
		return nil, dErrors.NewValidation("invalid contract status", map[string]string{"status": "status is required"})
	}
	contract, err := s.store.GetContractByNumber(ctx, contractNumber)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "contract %s not found", contractNumber)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch contract", err)
	}
	updated, err := s.store.UpdateContractStatus(ctx, contract.ID, status)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to update contract status", err)
	}
	return updated, nil
}

// AddMember attaches a member to a contract under a role. At most one main
// member may exist per contract number; the check and the edge creation are
// two operations, so a narrow concurrent window remains (the resolver
// tolerates duplicates by keeping the first edge in query order).
func (s *Service) AddMember(ctx context.Context, contractNumber, memberID string, role models.Role) (*models.Relationship, error) {
	if !models.ValidRole(role) {
		return nil, dErrors.NewValidation("invalid member role", map[string]string{
			"role": "role must be Main Member, Dependent or Beneficiary",
		})
	}
	if _, err := s.store.GetContractByNumber(ctx, contractNumber); err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "contract %s not found", contractNumber)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch contract", err)
	}
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "member %s not found", memberID)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch member", err)
	}

	if role == models.RoleMainMember {
		exists, err := s.store.HasMainMember(ctx, contractNumber)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to check main member", err)
		}
		if exists {
			return nil, dErrors.Newf(dErrors.CodeConflict, "contract %s already has a main member", contractNumber)
		}
	}

	rel := &models.Relationship{
		ID:             uuid.NewString(),
		MemberID:       memberID,
		ContractNumber: contractNumber,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateRelationship(ctx, rel); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to add member", err)
	}

	s.publish(ctx, events.Event{
		Type:        events.MemberAdded,
		AggregateID: contractNumber,
		OccurredAt:  rel.CreatedAt,
		Payload:     map[string]any{"memberId": memberID, "role": role},
	})
	return rel, nil
}

// Members resolves and partitions a contract's member set.
func (s *Service) Members(ctx context.Context, contractNumber string) (*models.ContractMembers, error) {
	if _, err := s.store.GetContractByNumber(ctx, contractNumber); err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "contract %s not found", contractNumber)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch contract", err)
	}
	members, err := s.store.ResolveMembers(ctx, contractNumber)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve contract members", err)
	}
	return members, nil
}

// Page is one contract search result page.
type Page struct {
	Rows    []models.Contract `json:"rows"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"hasMore"`
}

var sortableFields = map[string]bool{
	"createdAt":      true,
	"updatedAt":      true,
	"contractNumber": true,
	"status":         true,
}

// Search runs one page of filtered, sorted contract search.
func (s *Service) Search(ctx context.Context, req search.Request) (*Page, error) {
	if req.Sort.Field == "" {
		req.Sort = docstore.Order{Field: "createdAt", Desc: true}
	}
	if !sortableFields[req.Sort.Field] {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "cannot sort contracts by %q", req.Sort.Field)
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	plan := search.Compose(req)
	rows, err := s.store.SearchContracts(ctx, plan.Query(req.Cursor, pageSize))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "contract search failed", err)
	}

	page := &Page{HasMore: search.HasMore(len(rows), pageSize)}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		page.Cursor = search.EncodeCursor(plan.OrderBy, contractstore.ContractField(last, plan.OrderBy.Field), last.ID)
	}

	for _, p := range plan.Post {
		kept := rows[:0]
		for _, row := range rows {
			if p.Match(contractstore.ContractField(row, p.Field)) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	if plan.Resort {
		order := req.Sort
		sort.SliceStable(rows, func(i, j int) bool {
			c := docstore.Compare(contractstore.ContractField(rows[i], order.Field), contractstore.ContractField(rows[j], order.Field))
			if order.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	page.Rows = rows
	if page.Rows == nil {
		page.Rows = []models.Contract{}
	}
	return page, nil
}

// CreateMemberInput is the member creation payload.
type CreateMemberInput struct {
	IDNumber    string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Contacts    []models.ContactDetail
	Address     *models.Address
}

// CreateMember writes a member root with its satellites. The id number is
// externally unique: an existing member under the same number is a conflict.
func (s *Service) CreateMember(ctx context.Context, input CreateMemberInput) (*models.Member, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(input.IDNumber) == "" {
		fields["idNumber"] = "id number is required"
	}
	if strings.TrimSpace(input.FirstName) == "" {
		fields["firstName"] = "first name is required"
	}
	if strings.TrimSpace(input.LastName) == "" {
		fields["lastName"] = "last name is required"
	}
	if len(fields) > 0 {
		return nil, dErrors.NewValidation("member is invalid", fields)
	}

	if _, err := s.store.FindMemberByIDNumber(ctx, input.IDNumber); err == nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "member with id number %s already exists", input.IDNumber)
	} else if err != docstore.ErrNotFound {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to check member id number", err)
	}

	member := &models.Member{
		ID:          uuid.NewString(),
		IDNumber:    input.IDNumber,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		DateOfBirth: input.DateOfBirth,
	}
	if err := s.store.CreateMember(ctx, member, input.Contacts, input.Address); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create member", err)
	}
	return member, nil
}

// GetMember returns one member with its satellites.
func (s *Service) GetMember(ctx context.Context, id string) (*models.ResolvedMember, error) {
	member, err := s.store.ResolveMember(ctx, id)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "member %s not found", id)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch member", err)
	}
	return member, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"event_type", e.Type,
			"aggregate_id", e.AggregateID,
			"error", err,
		)
	}
}
