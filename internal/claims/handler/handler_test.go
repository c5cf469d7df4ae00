package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverdesk/internal/claims/metrics"
	"coverdesk/internal/claims/models"
	"coverdesk/internal/claims/service"
	"coverdesk/internal/claims/store"
	"coverdesk/internal/docstore"
	"coverdesk/internal/events"
)

// Prometheus metrics register globally; create them once for the package.
var testMetrics = metrics.New()

// newServer wires the real service and store over the in-memory datastore so
// handler tests exercise the full read/write path.
func newServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	claimStore := store.New(docstore.NewMemory(), logger, testMetrics)
	svc := service.New(claimStore, events.Noop{}, logger, 20, 100)

	r := chi.NewRouter()
	New(svc, logger).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func submitClaim(t *testing.T, srv *httptest.Server, claimant string) models.AssembledClaim {
	t.Helper()

	body := map[string]any{
		"contractNumber": "CON001",
		"claimantName":   claimant,
		"policy":         map[string]any{"policyNumber": "POL001", "holderName": claimant, "coverageAmount": 50000},
		"bankDetails":    map[string]any{"accountHolder": claimant, "bankName": "FNB", "accountNumber": "62000000", "branchCode": "250655"},
		"documents": []map[string]string{
			{"type": "Death Certificate", "url": "https://docs/dc.pdf"},
			{"type": "ID Document", "url": "https://docs/id.pdf"},
			{"type": "Bank Statement", "url": "https://docs/bs.pdf"},
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/claims", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.AssembledClaim
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func getPage(t *testing.T, srv *httptest.Server, query string) service.Page {
	t.Helper()

	resp, err := http.Get(srv.URL + "/claims?" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page service.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	return page
}

func TestClaimLifecycleOverHTTP(t *testing.T) {
	srv, _ := newServer(t)

	created := submitClaim(t, srv, "Thandi Nkosi")
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusFNOL, created.Status)

	t.Run("fetches the assembled claim", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/claims/" + created.ID)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.AssembledClaim
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "POL001", got.Policy.PolicyNumber)
		assert.Len(t, got.Documents, 3)
	})

	t.Run("updates the status", func(t *testing.T) {
		raw := []byte(`{"status":"approved"}`)
		req, err := http.NewRequest(http.MethodPatch, srv.URL+"/claims/"+created.ID+"/status", bytes.NewReader(raw))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Claim
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("rejects an invalid status", func(t *testing.T) {
		raw := []byte(`{"status":"closed"}`)
		req, err := http.NewRequest(http.MethodPatch, srv.URL+"/claims/"+created.ID+"/status", bytes.NewReader(raw))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("404s an unknown claim", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/claims/CLM404")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateRejectsIncompleteSubmission(t *testing.T) {
	srv, _ := newServer(t)

	body := []byte(`{"contractNumber":"CON001"}`)
	resp, err := http.Post(srv.URL+"/claims", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestSearchPagination seeds twelve claims and walks them in pages of five:
// the pages concatenate to the exact unpaginated row set, with no duplicates
// and no gaps.
func TestSearchPagination(t *testing.T) {
	srv, _ := newServer(t)

	want := make(map[string]bool)
	for i := 0; i < 12; i++ {
		created := submitClaim(t, srv, fmt.Sprintf("Claimant %02d", i))
		want[created.ID] = true
		time.Sleep(2 * time.Millisecond) // distinct createdAt per claim
	}

	var (
		seen   = make(map[string]bool)
		cursor string
		sizes  []int
	)
	for {
		q := "pageSize=5&sort=createdAt&dir=desc"
		if cursor != "" {
			q += "&cursor=" + cursor
		}
		page := getPage(t, srv, q)
		sizes = append(sizes, len(page.Rows))
		for _, row := range page.Rows {
			require.False(t, seen[row.ID], "claim %s returned twice", row.ID)
			seen[row.ID] = true
		}
		if !page.HasMore || len(page.Rows) == 0 {
			break
		}
		cursor = page.Cursor
	}

	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.Equal(t, want, seen, "paged rows equal the unpaginated set")

	t.Run("unpaginated fetch returns the same set", func(t *testing.T) {
		page := getPage(t, srv, "pageSize=50")
		assert.Len(t, page.Rows, 12)
		assert.False(t, page.HasMore)
	})
}

func TestSearchFilters(t *testing.T) {
	srv, svc := newServer(t)

	submitClaim(t, srv, "Alice Dlamini")
	submitClaim(t, srv, "Alan Smith")
	bob := submitClaim(t, srv, "Bob Mokoena")

	_, err := svc.UpdateStatus(context.Background(), bob.ID, models.StatusApproved)
	require.NoError(t, err)

	t.Run("status equality", func(t *testing.T) {
		page := getPage(t, srv, "status=approved")
		require.Len(t, page.Rows, 1)
		assert.Equal(t, bob.ID, page.Rows[0].ID)
	})

	t.Run("claimant name prefix", func(t *testing.T) {
		page := getPage(t, srv, "claimantName=Al&sort=claimantName&dir=asc")
		require.Len(t, page.Rows, 2)
		assert.Equal(t, "Alan Smith", page.Rows[0].ClaimantName)
		assert.Equal(t, "Alice Dlamini", page.Rows[1].ClaimantName)
	})

	t.Run("the all sentinel is ignored", func(t *testing.T) {
		page := getPage(t, srv, "status=all")
		assert.Len(t, page.Rows, 3)
	})

	t.Run("rejects a malformed date filter", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/claims?createdFrom=yesterday")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
