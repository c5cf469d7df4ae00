// Package handler exposes claim operations over HTTP. It stays thin:
// decode, delegate to the service, translate errors.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coverdesk/internal/claims/models"
	"coverdesk/internal/claims/service"
	"coverdesk/internal/platform/middleware"
	"coverdesk/internal/search"
	"coverdesk/internal/transport/http/shared"
	dErrors "coverdesk/pkg/domain-errors"
)

// Service defines the claim operations the handler consumes.
type Service interface {
	Create(ctx context.Context, input service.CreateInput) (*models.AssembledClaim, error)
	Get(ctx context.Context, id string) (*models.AssembledClaim, error)
	Search(ctx context.Context, req search.Request) (*service.Page, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Claim, error)
	UpdateBankDetails(ctx context.Context, id string, bank models.BankDetails) error
	AppendDocuments(ctx context.Context, id string, docs []models.DocumentRef) error
}

// Handler handles claim endpoints.
type Handler struct {
	claims Service
	logger *slog.Logger
}

// New creates a new claim Handler.
func New(claims Service, logger *slog.Logger) *Handler {
	return &Handler{claims: claims, logger: logger}
}

// Register mounts the claim routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/claims", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleSearch)
		r.Get("/{claimID}", h.handleGet)
		r.Patch("/{claimID}/status", h.handleUpdateStatus)
		r.Put("/{claimID}/bank-details", h.handleUpdateBankDetails)
		r.Post("/{claimID}/documents", h.handleAppendDocuments)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	claim, err := h.claims.Create(ctx, req.toInput())
	if err != nil {
		h.writeServiceError(ctx, w, "create claim", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, claim)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claim, err := h.claims.Get(ctx, chi.URLParam(r, "claimID"))
	if err != nil {
		h.writeServiceError(ctx, w, "get claim", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseSearchRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := h.claims.Search(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "search claims", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	claim, err := h.claims.UpdateStatus(ctx, chi.URLParam(r, "claimID"), req.Status)
	if err != nil {
		h.writeServiceError(ctx, w, "update claim status", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleUpdateBankDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var bank models.BankDetails
	if err := json.NewDecoder(r.Body).Decode(&bank); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.claims.UpdateBankDetails(ctx, chi.URLParam(r, "claimID"), bank); err != nil {
		h.writeServiceError(ctx, w, "update bank details", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAppendDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req appendDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.claims.AppendDocuments(ctx, chi.URLParam(r, "claimID"), req.Documents); err != nil {
		h.writeServiceError(ctx, w, "append documents", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "claim operation failed",
			"operation", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	shared.WriteError(w, err)
}
