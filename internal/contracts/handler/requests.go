package handler

import (
	"net/http"
	"strconv"
	"time"

	"coverdesk/internal/contracts/models"
	"coverdesk/internal/contracts/service"
	"coverdesk/internal/docstore"
	"coverdesk/internal/search"
	dErrors "coverdesk/pkg/domain-errors"
)

type createContractRequest struct {
	PoliciesID        string   `json:"policiesId"`
	CateringOptionIDs []string `json:"cateringOptionIds"`
	Status            string   `json:"status"`
	MainMemberID      string   `json:"mainMemberId"`
}

func (r createContractRequest) toInput() service.CreateContractInput {
	return service.CreateContractInput{
		PoliciesID:        r.PoliciesID,
		CateringOptionIDs: r.CateringOptionIDs,
		Status:            r.Status,
		MainMemberID:      r.MainMemberID,
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addMemberRequest struct {
	MemberID string      `json:"memberId"`
	Role     models.Role `json:"role"`
}

type createMemberRequest struct {
	IDNumber    string                 `json:"idNumber"`
	FirstName   string                 `json:"firstName"`
	LastName    string                 `json:"lastName"`
	DateOfBirth time.Time              `json:"dateOfBirth"`
	Contacts    []models.ContactDetail `json:"contacts"`
	Address     *models.Address        `json:"address"`
}

func (r createMemberRequest) toInput() service.CreateMemberInput {
	return service.CreateMemberInput{
		IDNumber:    r.IDNumber,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DateOfBirth: r.DateOfBirth,
		Contacts:    r.Contacts,
		Address:     r.Address,
	}
}

func parseSearchRequest(r *http.Request) (search.Request, error) {
	q := r.URL.Query()

	req := search.Request{
		Filters: map[string]any{
			"status":         q.Get("status"),
			"policiesId":     q.Get("policiesId"),
			"contractNumber": search.Prefix(q.Get("contractNumber")),
		},
		Cursor: q.Get("cursor"),
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
