// Package handler exposes contract and member operations over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coverdesk/internal/contracts/models"
	"coverdesk/internal/contracts/service"
	"coverdesk/internal/platform/middleware"
	"coverdesk/internal/search"
	"coverdesk/internal/transport/http/shared"
	dErrors "coverdesk/pkg/domain-errors"
)

// Service defines the contract operations the handler consumes.
type Service interface {
	CreateContract(ctx context.Context, input service.CreateContractInput) (*models.Contract, error)
	Get(ctx context.Context, contractNumber string) (*models.AssembledContract, error)
	UpdateStatus(ctx context.Context, contractNumber, status string) (*models.Contract, error)
	Search(ctx context.Context, req search.Request) (*service.Page, error)
	AddMember(ctx context.Context, contractNumber, memberID string, role models.Role) (*models.Relationship, error)
	Members(ctx context.Context, contractNumber string) (*models.ContractMembers, error)
	CreateMember(ctx context.Context, input service.CreateMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, id string) (*models.ResolvedMember, error)
}

// Handler handles contract and member endpoints.
type Handler struct {
	contracts Service
	logger    *slog.Logger
}

// New creates a new contract Handler.
func New(contracts Service, logger *slog.Logger) *Handler {
	return &Handler{contracts: contracts, logger: logger}
}

// Register mounts the contract and member routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleSearch)
		r.Get("/{contractNumber}", h.handleGet)
		r.Patch("/{contractNumber}/status", h.handleUpdateStatus)
		r.Get("/{contractNumber}/members", h.handleMembers)
		r.Post("/{contractNumber}/members", h.handleAddMember)
	})
	r.Route("/members", func(r chi.Router) {
		r.Post("/", h.handleCreateMember)
		r.Get("/{memberID}", h.handleGetMember)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	contract, err := h.contracts.CreateContract(ctx, req.toInput())
	if err != nil {
		h.writeServiceError(ctx, w, "create contract", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, contract)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contract, err := h.contracts.Get(ctx, chi.URLParam(r, "contractNumber"))
	if err != nil {
		h.writeServiceError(ctx, w, "get contract", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, contract)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	contract, err := h.contracts.UpdateStatus(ctx, chi.URLParam(r, "contractNumber"), req.Status)
	if err != nil {
		h.writeServiceError(ctx, w, "update contract status", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, contract)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseSearchRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := h.contracts.Search(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "search contracts", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	members, err := h.contracts.Members(ctx, chi.URLParam(r, "contractNumber"))
	if err != nil {
		h.writeServiceError(ctx, w, "resolve contract members", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rel, err := h.contracts.AddMember(ctx, chi.URLParam(r, "contractNumber"), req.MemberID, req.Role)
	if err != nil {
		h.writeServiceError(ctx, w, "add contract member", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rel)
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	member, err := h.contracts.CreateMember(ctx, req.toInput())
	if err != nil {
		h.writeServiceError(ctx, w, "create member", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member, err := h.contracts.GetMember(ctx, chi.URLParam(r, "memberID"))
	if err != nil {
		h.writeServiceError(ctx, w, "get member", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "contract operation failed",
			"operation", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	shared.WriteError(w, err)
}
