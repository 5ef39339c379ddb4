package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/reconcile"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/infrastructure/http/v1/dto"
	"pharmacy/pkg/notify"
)

type recorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recorder) Notify(_ context.Context, level notify.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notify.Notice{Level: level, Message: message})
}

func (r *recorder) last() notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notify.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_SendsBearerAndDecodesErrors(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: "code already exists", Details: map[string]any{"field": "code"}})
	}))
	defer srv.Close()

	c := New(Session{BaseURL: srv.URL + "/", Token: "tok"})
	err := c.Do(context.Background(), http.MethodGet, "/items", nil, nil)

	assert.Equal(t, "Bearer tok", gotAuth)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "CONFLICT", apiErr.Code)
	assert.Equal(t, "code already exists", apiErr.Message)
	assert.Equal(t, "code", apiErr.Details["field"])
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(Session{BaseURL: srv.URL}).Do(context.Background(), http.MethodDelete, "/x", nil, nil))
}

func TestClient_TimeoutIsFixed(t *testing.T) {
	c := New(Session{BaseURL: "http://example"}, WithHTTPClient(&http.Client{Timeout: time.Minute}))
	assert.Equal(t, Timeout, c.http.Timeout)
}

// --- controller ---

type department struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name"`
}

type fakeCatalog struct {
	mu        sync.Mutex
	items     []department
	calls     []string
	lastLimit string
}

func (f *fakeCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet:
		f.lastLimit = r.URL.Query().Get("limit")
		writeJSON(w, http.StatusOK, dto.ListResponse{Items: f.items, TotalCount: int64(len(f.items))})
	case r.Method == http.MethodPost:
		var d department
		_ = json.NewDecoder(r.Body).Decode(&d)
		if d.Name == "taken" {
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: "name already used"})
			return
		}
		d.ID = id.New()
		f.items = append(f.items, d)
		writeJSON(w, http.StatusCreated, d)
	case r.Method == http.MethodDelete:
		f.items = nil
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func newDepartmentController(t *testing.T, confirm ConfirmFunc) (*Controller[department], *fakeCatalog, *recorder) {
	t.Helper()
	fake := &fakeCatalog{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	rec := &recorder{}
	ctrl := NewController(New(Session{BaseURL: srv.URL, Token: "t"}), ControllerConfig[department]{
		Resource: "/departments",
		Entity:   "Department",
		Validate: func(d department) error {
			if d.Name == "" {
				return errors.New("Name is required")
			}
			return nil
		},
		ID:       func(d department) id.ID { return d.ID },
		Notifier: rec,
		Confirm:  confirm,
	})
	return ctrl, fake, rec
}

func TestController_CreateReloads(t *testing.T) {
	ctrl, fake, rec := newDepartmentController(t, nil)

	created, err := ctrl.Create(context.Background(), department{Name: "ICU"})
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /departments", "GET /departments"}, fake.calls)
	require.Len(t, ctrl.Items(), 1)
	assert.Equal(t, "0", fake.lastLimit, "the full collection is loaded")
	_, found := ctrl.Find(created.ID)
	assert.True(t, found)
	assert.Equal(t, notify.LevelSuccess, rec.last().Level)
	assert.False(t, ctrl.Loading())
}

func TestController_LocalValidationSendsNothing(t *testing.T) {
	ctrl, fake, rec := newDepartmentController(t, nil)

	_, err := ctrl.Create(context.Background(), department{})
	require.Error(t, err)
	assert.Empty(t, fake.calls)
	assert.Equal(t, notify.LevelError, rec.last().Level)
}

func TestController_BackendMessageIsShown(t *testing.T) {
	ctrl, fake, rec := newDepartmentController(t, nil)

	_, err := ctrl.Create(context.Background(), department{Name: "taken"})
	require.Error(t, err)
	assert.Equal(t, []string{"POST /departments"}, fake.calls, "no reload after a failed create")
	assert.Equal(t, "name already used", rec.last().Message)
}

func TestController_DeleteRequiresConfirmation(t *testing.T) {
	declined, fake, _ := newDepartmentController(t, func(context.Context, string) bool { return false })
	err := declined.Delete(context.Background(), id.New())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, fake.calls)

	accepted, fake2, _ := newDepartmentController(t, func(context.Context, string) bool { return true })
	require.NoError(t, accepted.Delete(context.Background(), id.New()))
	require.Len(t, fake2.calls, 2)
	assert.Equal(t, "GET /departments", fake2.calls[1])
}

func TestErrorMessage_Generic(t *testing.T) {
	assert.Equal(t, GenericErrorMessage, ErrorMessage(errors.New("dial tcp: refused")))
	assert.Equal(t, GenericErrorMessage, ErrorMessage(&APIError{Status: 502}))
}

// --- billing ---

func TestBillingFlow_BlocksLineAboveBatch(t *testing.T) {
	itemID, locationID := id.New(), id.New()
	var posted int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/billing/available-batches/" + itemID.String():
			writeJSON(w, http.StatusOK, dto.ListResponse{Items: []*stock.Batch{
				{ItemID: itemID, ItemName: "Paracetamol 500mg", BatchNo: "B12", LocationID: locationID, Quantity: 4},
			}})
		case "/billing/create-invoice":
			posted++
			assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
			writeJSON(w, http.StatusCreated, invoice.Invoice{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	flow := NewBillingFlow(New(Session{BaseURL: srv.URL}), rec)
	_, err := flow.AvailableBatches(context.Background(), itemID)
	require.NoError(t, err)

	body := dto.InvoiceBody{
		LocationID: locationID,
		Lines: []dto.LineRequest{{
			ItemID: itemID, ItemName: "Paracetamol 500mg", BatchNo: "B12", Quantity: 5,
			Rate: decimal.NewFromInt(10),
		}},
	}
	_, err = flow.Submit(context.Background(), body)
	require.Error(t, err)
	assert.Equal(t, 0, posted)
	assert.Equal(t, "Paracetamol 500mg: only 4 available in batch B12", rec.last().Message)

	body.Lines[0].Quantity = 4
	_, err = flow.Submit(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 1, posted)
	assert.True(t, flow.Totals(body).Total.Equal(decimal.NewFromInt(40)))
}

// --- adjustments ---

func newAdjustmentServer(t *testing.T, failTake bool) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	adj := &invoice.Adjustment{ID: id.New(), OriginalQty: 2, NewQty: 5, State: reconcile.StatePending}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/billing/adjustments/"+adj.ID.String()+"/approve":
			adj.State = reconcile.StateApproved
			writeJSON(w, http.StatusOK, dto.AdjustmentResponse{Adjustment: adj})
		case r.URL.Path == "/billing/adjustments/"+adj.ID.String()+"/take":
			if failTake {
				writeJSON(w, http.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "batch was sold out"})
				return
			}
			adj.State = reconcile.StateTaken
			writeJSON(w, http.StatusOK, dto.AdjustmentResponse{Adjustment: adj})
		default:
			writeJSON(w, http.StatusCreated, dto.AdjustmentResponse{Adjustment: adj})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAdjustmentFlow_TakeBeforeApproveIsRejectedLocally(t *testing.T) {
	srv, calls := newAdjustmentServer(t, false)
	flow := NewAdjustmentFlow(New(Session{BaseURL: srv.URL}), &recorder{})

	edit, err := flow.Edit(context.Background(), id.New(), id.New(), 5, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), edit.Machine.Delta())

	res := flow.Take(context.Background(), edit, reconcile.Snapshot{Available: 10})
	require.Error(t, res.Err)
	assert.Len(t, *calls, 1, "only the edit reached the server")

	require.NoError(t, flow.Approve(context.Background(), edit).Err)
	res = flow.Take(context.Background(), edit, reconcile.Snapshot{Available: 10})
	require.NoError(t, res.Err)
	assert.Equal(t, reconcile.StateTaken, edit.Machine.State)
	assert.Equal(t, reconcile.StateTaken, edit.Adjustment.State)
}

func TestAdjustmentFlow_FailedTakeRollsBack(t *testing.T) {
	srv, _ := newAdjustmentServer(t, true)
	rec := &recorder{}
	flow := NewAdjustmentFlow(New(Session{BaseURL: srv.URL}), rec)

	edit, err := flow.Edit(context.Background(), id.New(), id.New(), 5, "")
	require.NoError(t, err)
	require.NoError(t, flow.Approve(context.Background(), edit).Err)

	res := flow.Take(context.Background(), edit, reconcile.Snapshot{Available: 10})
	require.Error(t, res.Err)
	assert.Equal(t, reconcile.StateApproved, res.To)
	assert.Equal(t, reconcile.StateApproved, edit.Machine.State)
	assert.Equal(t, "batch was sold out", rec.last().Message)
}

func TestAdjustmentFlow_RejectedApproveNotifies(t *testing.T) {
	adj := &invoice.Adjustment{ID: id.New(), OriginalQty: 2, NewQty: 1, State: reconcile.StatePending}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/approve") {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "not allowed to approve"})
			return
		}
		writeJSON(w, http.StatusCreated, dto.AdjustmentResponse{Adjustment: adj})
	}))
	t.Cleanup(srv.Close)

	rec := &recorder{}
	flow := NewAdjustmentFlow(New(Session{BaseURL: srv.URL}), rec)
	edit, err := flow.Edit(context.Background(), id.New(), id.New(), 1, "")
	require.NoError(t, err)

	res := flow.Approve(context.Background(), edit)
	require.Error(t, res.Err)
	assert.Equal(t, reconcile.StatePending, edit.Machine.State)
	assert.Equal(t, notify.LevelError, rec.last().Level)
	assert.Equal(t, "not allowed to approve", rec.last().Message)
}
