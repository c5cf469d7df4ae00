package handler

import (
	"net/http"
	"strconv"
	"time"

	"coverdesk/internal/claims/models"
	"coverdesk/internal/claims/service"
	"coverdesk/internal/docstore"
	"coverdesk/internal/search"
	dErrors "coverdesk/pkg/domain-errors"
)

// createClaimRequest is the submission payload: the full composite record.
type createClaimRequest struct {
	ContractNumber string                `json:"contractNumber"`
	ClaimantName   string                `json:"claimantName"`
	Policy         models.PolicySnapshot `json:"policy"`
	Deceased       *models.DeceasedInfo  `json:"deceased,omitempty"`
	BankDetails    models.BankDetails    `json:"bankDetails"`
	Documents      []models.DocumentRef  `json:"documents"`
}

func (r createClaimRequest) toInput() service.CreateInput {
	return service.CreateInput{
		ContractNumber: r.ContractNumber,
		ClaimantName:   r.ClaimantName,
		Policy:         r.Policy,
		Deceased:       r.Deceased,
		Bank:           r.BankDetails,
		Documents:      r.Documents,
	}
}

type updateStatusRequest struct {
	Status models.Status `json:"status"`
}

type appendDocumentsRequest struct {
	Documents []models.DocumentRef `json:"documents"`
}

// parseSearchRequest maps URL query parameters onto the search request
// shape. Empty and "all" values pass through; the composer drops them.
func parseSearchRequest(r *http.Request) (search.Request, error) {
	q := r.URL.Query()

	filters := map[string]any{
		"status":         q.Get("status"),
		"contractNumber": q.Get("contractNumber"),
		"claimantName":   search.Prefix(q.Get("claimantName")),
	}

	createdRange := search.Range{}
	if v := q.Get("createdFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return search.Request{}, dErrors.New(dErrors.CodeBadRequest, "createdFrom must be RFC 3339")
		}
		createdRange.From = t
	}
	if v := q.Get("createdTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return search.Request{}, dErrors.New(dErrors.CodeBadRequest, "createdTo must be RFC 3339")
		}
		createdRange.To = t
	}
	filters["createdAt"] = createdRange

	req := search.Request{
		Filters: filters,
		Cursor:  q.Get("cursor"),
	}

	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return search.Request{}, dErrors.New(dErrors.CodeBadRequest, "pageSize must be a positive integer")
		}
		req.PageSize = n
	}

	req.Sort = docstore.Order{Field: q.Get("sort")}
	switch q.Get("dir") {
	case "", "desc":
		req.Sort.Desc = true
	case "asc":
		req.Sort.Desc = false
	default:
		return search.Request{}, dErrors.New(dErrors.CodeBadRequest, `dir must be "asc" or "desc"`)
	}

	return req, nil
}
