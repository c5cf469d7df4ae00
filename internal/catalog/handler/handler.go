// Package handler exposes catalog operations over HTTP. Destructive
// operations require the admin role.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coverdesk/internal/catalog/models"
	"coverdesk/internal/platform/middleware"
	"coverdesk/internal/transport/http/shared"
	dErrors "coverdesk/pkg/domain-errors"
)

// Service defines the catalog operations the handler consumes.
type Service interface {
	CreatePolicy(ctx context.Context, p models.Policy) (*models.Policy, error)
	GetPolicy(ctx context.Context, id string) (*models.Policy, error)
	ListPolicies(ctx context.Context) ([]models.Policy, error)
	DeletePolicy(ctx context.Context, id string) error

	CreateCateringOption(ctx context.Context, c models.CateringOption) (*models.CateringOption, error)
	GetCateringOption(ctx context.Context, id string) (*models.CateringOption, error)
	ListCateringOptions(ctx context.Context) ([]models.CateringOption, error)
	DeleteCateringOption(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c models.Category) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateFeature(ctx context.Context, f models.Feature) (*models.Feature, error)
	ListFeatures(ctx context.Context) ([]models.Feature, error)
	DeleteFeature(ctx context.Context, id string) error
}

// AdminRole gates destructive catalog operations.
const AdminRole = "admin"

// Handler handles catalog endpoints.
type Handler struct {
	catalog Service
	logger  *slog.Logger
}

// New creates a new catalog Handler.
func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// Register mounts the catalog routes.
func (h *Handler) Register(r chi.Router) {
	admin := middleware.RequireRole(AdminRole, h.logger)

	r.Route("/policies", func(r chi.Router) {
		r.Post("/", h.handleCreatePolicy)
		r.Get("/", h.handleListPolicies)
		r.Get("/{policyID}", h.handleGetPolicy)
		r.With(admin).Delete("/{policyID}", h.handleDeletePolicy)
	})
	r.Route("/catering", func(r chi.Router) {
		r.Post("/", h.handleCreateCatering)
		r.Get("/", h.handleListCatering)
		r.Get("/{cateringID}", h.handleGetCatering)
		r.With(admin).Delete("/{cateringID}", h.handleDeleteCatering)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Post("/", h.handleCreateCategory)
		r.Get("/", h.handleListCategories)
		r.With(admin).Delete("/{categoryID}", h.handleDeleteCategory)
	})
	r.Route("/features", func(r chi.Router) {
		r.Post("/", h.handleCreateFeature)
		r.Get("/", h.handleListFeatures)
		r.With(admin).Delete("/{featureID}", h.handleDeleteFeature)
	})
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p models.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.catalog.CreatePolicy(ctx, p)
	if err != nil {
		h.writeServiceError(ctx, w, "create policy", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.catalog.GetPolicy(ctx, chi.URLParam(r, "policyID"))
	if err != nil {
		h.writeServiceError(ctx, w, "get policy", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.catalog.ListPolicies(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "list policies", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeletePolicy(ctx, chi.URLParam(r, "policyID")); err != nil {
		h.writeServiceError(ctx, w, "delete policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateCatering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c models.CateringOption
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.catalog.CreateCateringOption(ctx, c)
	if err != nil {
		h.writeServiceError(ctx, w, "create catering option", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetCatering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.catalog.GetCateringOption(ctx, chi.URLParam(r, "cateringID"))
	if err != nil {
		h.writeServiceError(ctx, w, "get catering option", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListCatering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.catalog.ListCateringOptions(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "list catering options", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeleteCatering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteCateringOption(ctx, chi.URLParam(r, "cateringID")); err != nil {
		h.writeServiceError(ctx, w, "delete catering option", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.catalog.CreateCategory(ctx, c)
	if err != nil {
		h.writeServiceError(ctx, w, "create category", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "list categories", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteCategory(ctx, chi.URLParam(r, "categoryID")); err != nil {
		h.writeServiceError(ctx, w, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateFeature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var f models.Feature
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.catalog.CreateFeature(ctx, f)
	if err != nil {
		h.writeServiceError(ctx, w, "create feature", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.catalog.ListFeatures(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "list features", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeleteFeature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteFeature(ctx, chi.URLParam(r, "featureID")); err != nil {
		h.writeServiceError(ctx, w, "delete feature", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "catalog operation failed",
			"operation", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	shared.WriteError(w, err)
}
