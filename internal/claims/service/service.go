// Package service orchestrates claim operations: validated atomic
// submission, assembled reads, and cursor-paginated search.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"coverdesk/internal/claims/models"
	claimstore "coverdesk/internal/claims/store"
	"coverdesk/internal/docstore"
	"coverdesk/internal/events"
	"coverdesk/internal/search"
	dErrors "coverdesk/pkg/domain-errors"
)

// Store is the claim persistence boundary the service consumes.
type Store interface {
	Get(ctx context.Context, id string) (*models.AssembledClaim, error)
	Search(ctx context.Context, q docstore.Query) ([]models.AssembledClaim, error)
	Create(ctx context.Context, claim *models.AssembledClaim) error
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Claim, error)
	UpdateBankDetails(ctx context.Context, id string, bank models.BankDetails) error
	AppendDocuments(ctx context.Context, id string, docs []models.DocumentRef) error
}

// Publisher sends lifecycle events; failures are logged, never surfaced.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Service implements claim use cases over the store.
type Service struct {
	store           Store
	publisher       Publisher
	logger          *slog.Logger
	defaultPageSize int
	maxPageSize     int
}

// New creates the claim service.
func New(store Store, publisher Publisher, logger *slog.Logger, defaultPageSize, maxPageSize int) *Service {
	return &Service{
		store:           store,
		publisher:       publisher,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// CreateInput is a fully-formed composite claim as submitted by the caller.
type CreateInput struct {
	ContractNumber string
	ClaimantName   string
	Policy         models.PolicySnapshot
	Deceased       *models.DeceasedInfo
	Bank           models.BankDetails
	Documents      []models.DocumentRef
}

// Create validates the composite, assigns a new claim identifier, and
// commits the root plus all satellites atomically. Validation failures
// return field-level errors and attempt no write.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.AssembledClaim, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claim := &models.AssembledClaim{
		Claim: models.Claim{
			ID:             newClaimID(now),
			ContractNumber: input.ContractNumber,
			ClaimantName:   input.ClaimantName,
			Status:         models.StatusFNOL,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Policy:    input.Policy,
		Deceased:  input.Deceased,
		Bank:      &input.Bank,
		Documents: input.Documents,
	}

	if err := s.store.Create(ctx, claim); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create claim", err)
	}

	s.publish(ctx, events.Event{
		Type:        events.ClaimCreated,
		AggregateID: claim.ID,
		OccurredAt:  now,
		Payload:     map[string]any{"contractNumber": claim.ContractNumber, "status": claim.Status},
	})
	return claim, nil
}

// Get returns the assembled claim view.
func (s *Service) Get(ctx context.Context, id string) (*models.AssembledClaim, error) {
	claim, err := s.store.Get(ctx, id)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "claim %s not found", id)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch claim", err)
	}
	return claim, nil
}

// UpdateStatus moves a claim to a new lifecycle status. Transitions are
// caller-directed; only enum membership is enforced.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Claim, error) {
	if !models.ValidStatus(status) {
		return nil, dErrors.NewValidation("invalid claim status", map[string]string{
			"status": fmt.Sprintf("%q is not a valid status", status),
		})
	}
	claim, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "claim %s not found", id)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to update claim status", err)
	}

	s.publish(ctx, events.Event{
		Type:        events.ClaimStatusChanged,
		AggregateID: id,
		OccurredAt:  time.Now().UTC(),
		Payload:     map[string]any{"status": status},
	})
	return claim, nil
}

// UpdateBankDetails replaces the payout account satellite.
func (s *Service) UpdateBankDetails(ctx context.Context, id string, bank models.BankDetails) error {
	if fields := bankFieldErrors(bank, ""); len(fields) > 0 {
		return dErrors.NewValidation("invalid bank details", fields)
	}
	if err := s.store.UpdateBankDetails(ctx, id, bank); err != nil {
		if err == docstore.ErrNotFound {
			return dErrors.Newf(dErrors.CodeNotFound, "claim %s not found", id)
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update bank details", err)
	}
	return nil
}

// AppendDocuments appends supporting documents to a claim.
func (s *Service) AppendDocuments(ctx context.Context, id string, docs []models.DocumentRef) error {
	if len(docs) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "documents must not be empty")
	}
	for _, d := range docs {
		if d.Type == "" || d.URL == "" {
			return dErrors.NewValidation("invalid document", map[string]string{
				"documents": "each document requires a type and a url",
			})
		}
	}
	if err := s.store.AppendDocuments(ctx, id, docs); err != nil {
		if err == docstore.ErrNotFound {
			return dErrors.Newf(dErrors.CodeNotFound, "claim %s not found", id)
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to append documents", err)
	}
	return nil
}

// Page is one search result page.
type Page struct {
	Rows    []models.AssembledClaim `json:"rows"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"hasMore"`
}

// sortableFields are the root fields a caller may sort claims by.
var sortableFields = map[string]bool{
	"createdAt":      true,
	"updatedAt":      true,
	"claimantName":   true,
	"status":         true,
	"contractNumber": true,
}

// Search runs one page of filtered, sorted claim search. The cursor resumes
// strictly after the previous page under the same sort; has-more is the
// full-page heuristic.
func (s *Service) Search(ctx context.Context, req search.Request) (*Page, error) {
	if req.Sort.Field == "" {
		req.Sort = docstore.Order{Field: "createdAt", Desc: true}
	}
	if !sortableFields[req.Sort.Field] {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "cannot sort claims by %q", req.Sort.Field)
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	plan := search.Compose(req)
	rows, err := s.store.Search(ctx, plan.Query(req.Cursor, pageSize))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "claim search failed", err)
	}

	page := &Page{HasMore: search.HasMore(len(rows), pageSize)}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		page.Cursor = search.EncodeCursor(plan.OrderBy, claimstore.RootField(last.Claim, plan.OrderBy.Field), last.ID)
	}

	for _, p := range plan.Post {
		rows = filterRows(rows, p)
	}
	if plan.Resort {
		resortRows(rows, req.Sort)
	}
	page.Rows = rows
	if page.Rows == nil {
		page.Rows = []models.AssembledClaim{}
	}
	return page, nil
}

func filterRows(rows []models.AssembledClaim, p search.Predicate) []models.AssembledClaim {
	out := rows[:0]
	for _, row := range rows {
		if p.Match(claimstore.RootField(row.Claim, p.Field)) {
			out = append(out, row)
		}
	}
	return out
}

func resortRows(rows []models.AssembledClaim, order docstore.Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := docstore.Compare(
			claimstore.RootField(rows[i].Claim, order.Field),
			claimstore.RootField(rows[j].Claim, order.Field),
		)
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
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

// newClaimID follows the wire convention CLM<unix-millis><random suffix>;
// the millisecond timestamp plus random tail makes collisions under
// concurrent writers vanishingly unlikely without coordination.
func newClaimID(now time.Time) string {
	return fmt.Sprintf("CLM%d%04d", now.UnixMilli(), rand.IntN(10000))
}

func validateCreate(input CreateInput) error {
	fields := make(map[string]string)
	if strings.TrimSpace(input.ContractNumber) == "" {
		fields["contractNumber"] = "contract number is required"
	}
	if strings.TrimSpace(input.ClaimantName) == "" {
		fields["claimantName"] = "claimant name is required"
	}
	if input.Policy.PolicyNumber == "" {
		fields["policy.policyNumber"] = "policy number is required"
	}
	for k, v := range bankFieldErrors(input.Bank, "bankDetails.") {
		fields[k] = v
	}

	present := make(map[string]bool, len(input.Documents))
	for _, d := range input.Documents {
		if d.Type == "" || d.URL == "" {
			fields["documents"] = "each document requires a type and a url"
		}
		present[d.Type] = true
	}
	for _, required := range models.MandatoryDocumentTypes {
		if !present[required] {
			fields["documents"] = fmt.Sprintf("missing mandatory document %q", required)
			break
		}
	}

	if len(fields) > 0 {
		return dErrors.NewValidation("claim submission is invalid", fields)
	}
	return nil
}

func bankFieldErrors(bank models.BankDetails, prefix string) map[string]string {
	fields := make(map[string]string)
	if bank.AccountHolder == "" {
		fields[prefix+"accountHolder"] = "account holder is required"
	}
	if bank.BankName == "" {
		fields[prefix+"bankName"] = "bank name is required"
	}
	if bank.AccountNumber == "" {
		fields[prefix+"accountNumber"] = "account number is required"
	}
	if bank.BranchCode == "" {
		fields[prefix+"branchCode"] = "branch code is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
