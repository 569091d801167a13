package controlplane

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/audit"
	"github.com/fentz26/ordertasks/internal/dispatch"
	"github.com/fentz26/ordertasks/internal/metrics"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/orders"
	"github.com/fentz26/ordertasks/internal/store"
	"github.com/fentz26/ordertasks/internal/taskconfig"
	"github.com/fentz26/ordertasks/internal/tasks"
)

type testServer struct {
	handler http.Handler
	store   *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	fs := afero.NewMemMapFs()
	settings := tasks.Settings{
		UploadsDir:      "/uploads",
		DefaultAuthorID: 1,
		ShippingMethods: []models.ShippingMethod{{ID: "flat_rate", Title: "Flat rate", RateID: "flat_rate:1"}},
	}
	env := &tasks.Env{
		Orders:   s,
		Options:  s,
		Posts:    s,
		FS:       fs,
		Now:      func() time.Time { return time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC) },
		Settings: settings,
	}
	lists := taskconfig.New(s)
	pdr := audit.NewPDRWriter(s)
	lifecycle := orders.NewLifecycle(s, dispatch.New(lists, env, dispatch.WithAudit(pdr)), pdr)
	svc := NewService(s, lists, lifecycle, pdr, settings, fs)
	return &testServer{
		handler: NewServer(svc, metrics.NewDisabled().Handler(), "127.0.0.1:0").Handler(),
		store:   s,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestServer_Health(t *testing.T) {
	t.Run("Should report a healthy database", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, w.Code)
		health := decode[HealthResponse](t, w)
		assert.True(t, health.OK)
		assert.Equal(t, "ok", health.DB)
		assert.NotEmpty(t, health.Version)
		assert.NotEmpty(t, health.Time)
	})

	t.Run("Should answer 503 on /metrics when disabled", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/metrics", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestServer_TaskLists(t *testing.T) {
	t.Run("Should list every task type with a schema", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/task-types", nil)

		require.Equal(t, http.StatusOK, w.Code)
		infos := decode[[]map[string]any](t, w)
		assert.Len(t, infos, len(tasks.Types()))
		assert.NotNil(t, infos[0]["args_schema"])
	})

	t.Run("Should sanitize a saved list and return it", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodPut, "/statuses/completed/tasks", []models.TaskDescriptor{
			{TaskType: "customorderfield", Args: map[string]any{"name": "  Ref<b>x</b> ", "value": "{{order id}}"}},
		})

		require.Equal(t, http.StatusOK, w.Code)
		saved := decode[[]models.TaskDescriptor](t, w)
		require.Len(t, saved, 1)
		assert.Equal(t, "Refx", saved[0].Args["name"])

		w = ts.do(t, http.MethodGet, "/statuses/completed/tasks", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, saved, decode[[]models.TaskDescriptor](t, w))
	})

	t.Run("Should escape args in the display view", func(t *testing.T) {
		ts := newTestServer(t)
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/statuses/processing/tasks", []models.TaskDescriptor{
			{TaskType: "sendmail", Args: map[string]any{
				"recipients": []map[string]any{{"label": "Tom & Jerry", "value": "tom@example.com"}},
			}},
		}).Code)

		w := ts.do(t, http.MethodGet, "/statuses/processing/tasks?view=display", nil)

		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]models.TaskDescriptor](t, w)
		require.Len(t, list, 1)
		recipients, ok := list[0].Args["recipients"].([]any)
		require.True(t, ok)
		require.Len(t, recipients, 1)
		assert.Equal(t, "Tom &amp; Jerry", recipients[0].(map[string]any)["label"])
	})

	t.Run("Should reject unknown task types", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodPut, "/statuses/completed/tasks", []models.TaskDescriptor{{TaskType: "explode"}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should reject unknown statuses", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/statuses/shipped/tasks", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_Orders(t *testing.T) {
	t.Run("Should create an order and run tasks on status change", func(t *testing.T) {
		ts := newTestServer(t)
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/statuses/completed/tasks", []models.TaskDescriptor{
			{TaskType: "logtofile", Args: map[string]any{"content": "done {{order id}}"}},
			{TaskType: "trashorder", Args: map[string]any{"reason": "archived"}},
		}).Code)

		w := ts.do(t, http.MethodPost, "/orders", map[string]any{
			"billing": map[string]any{"first_name": "Jane", "last_name": "Doe"},
		})
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode[models.Order](t, w)
		assert.Equal(t, models.OrderStatusPending, created.Status)

		path := "/orders/" + strconv.FormatInt(created.ID, 10)
		w = ts.do(t, http.MethodPost, path+"/status", map[string]string{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code)
		tr := decode[orders.Transition](t, w)
		assert.Equal(t, models.OrderStatusCompleted, tr.To)
		require.Len(t, tr.Report.Results, 2)
		require.Len(t, tr.Report.Deferred, 1)
		assert.True(t, tr.Order.Trashed)
		assert.Equal(t, "archived", tr.Order.Meta[tasks.TrashReasonMeta])

		w = ts.do(t, http.MethodGet, "/log", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "done "+strconv.FormatInt(created.ID, 10))

		w = ts.do(t, http.MethodGet, path+"/audit", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[[]models.PDREntry](t, w))
	})

	t.Run("Should map lookup errors to status codes", func(t *testing.T) {
		ts := newTestServer(t)

		assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/orders/999", nil).Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/orders/abc", nil).Code)
		assert.Equal(t, http.StatusNotFound,
			ts.do(t, http.MethodPost, "/orders/999/status", map[string]string{"status": "completed"}).Code)
		assert.Equal(t, http.StatusBadRequest,
			ts.do(t, http.MethodPost, "/orders/1/status", map[string]string{}).Code)
	})

	t.Run("Should answer 409 for a disallowed status change", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodPost, "/orders", map[string]any{
			"billing": map[string]any{"first_name": "Jane", "last_name": "Doe"},
		})
		require.Equal(t, http.StatusCreated, w.Code)
		path := "/orders/" + strconv.FormatInt(decode[models.Order](t, w).ID, 10) + "/status"

		assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, path, map[string]string{"status": "refunded"}).Code)
	})

	t.Run("Should report a missing log as not found", func(t *testing.T) {
		ts := newTestServer(t)

		assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/log", nil).Code)
	})
}

func TestServer_Settings(t *testing.T) {
	t.Run("Should expose editor lookups", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/categories", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Uncategorized", decode[[]models.Category](t, w)[0].Name)

		w = ts.do(t, http.MethodGet, "/users", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[[]models.User](t, w))

		w = ts.do(t, http.MethodGet, "/shipping-methods", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "flat_rate", decode[[]models.ShippingMethod](t, w)[0].ID)

		w = ts.do(t, http.MethodGet, "/posts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]models.Post](t, w))
	})

	t.Run("Should add categories and authors for the editor", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodPost, "/categories", map[string]string{"name": " News "})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "News", decode[models.Category](t, w).Name)

		w = ts.do(t, http.MethodPost, "/users", map[string]string{"display_name": "Editor", "email": "editor@example.com"})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Positive(t, decode[models.User](t, w).ID)

		w = ts.do(t, http.MethodGet, "/categories", nil)
		categories := decode[[]models.Category](t, w)
		require.Len(t, categories, 2)
		assert.Equal(t, "News", categories[1].Name)

		w = ts.do(t, http.MethodGet, "/users", nil)
		users := decode[[]models.User](t, w)
		assert.Equal(t, "Editor", users[len(users)-1].DisplayName)
	})

	t.Run("Should reject invalid categories and authors", func(t *testing.T) {
		ts := newTestServer(t)

		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/categories", map[string]string{"name": "   "}).Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/categories", map[string]string{}).Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/users", map[string]string{"display_name": "X", "email": "nope"}).Code)
	})
}

