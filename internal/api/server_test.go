package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tafsiri/tafsiri/internal/db"
	"github.com/tafsiri/tafsiri/internal/logger"
	"github.com/tafsiri/tafsiri/internal/models"
)

// memoryStore is an in-memory db.ConfigStore
type memoryStore struct {
	mu          sync.Mutex
	docs        map[string]models.Configuration
	order       []string
	unavailable bool
	allowNoop   bool
}

var _ db.ConfigStore = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string]models.Configuration)}
}

func (m *memoryStore) Connect(context.Context) error    { return nil }
func (m *memoryStore) Disconnect(context.Context) error { return nil }

func (m *memoryStore) Ping(context.Context) error {
	if m.unavailable {
		return errors.New("server selection timeout")
	}
	return nil
}

func (m *memoryStore) ListConfigs(context.Context) ([]models.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, models.ErrUnavailable
	}
	out := make([]models.Configuration, 0, len(m.order))
	for _, id := range m.order {
		if doc, ok := m.docs[id]; ok {
			out = append(out, doc.WithID(id))
		}
	}
	return out, nil
}

func (m *memoryStore) CreateConfig(_ context.Context, cfg models.Configuration) (models.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, models.ErrUnavailable
	}
	id := primitive.NewObjectID().Hex()
	m.docs[id] = cfg.WithoutID()
	m.order = append(m.order, id)
	return cfg.WithID(id), nil
}

func (m *memoryStore) GetConfig(_ context.Context, id string) (models.Configuration, error) {
	if _, err := db.ParseID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, models.ErrUnavailable
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, models.ErrConfigNotFound
	}
	return doc.WithID(id), nil
}

func (m *memoryStore) UpdateConfig(_ context.Context, id string, fields models.Configuration) (models.Configuration, error) {
	if _, err := db.ParseID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, models.ErrUnavailable
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, models.ErrConfigNotFound
	}
	modified := false
	merged := doc.WithoutID()
	for k, v := range fields.WithoutID() {
		if cur, ok := merged[k]; !ok || !reflect.DeepEqual(cur, v) {
			modified = true
		}
		merged[k] = v
	}
	if !modified && !m.allowNoop {
		return nil, models.ErrUpdateFailed
	}
	m.docs[id] = merged
	return merged.WithID(id), nil
}

func (m *memoryStore) DeleteConfig(_ context.Context, id string) error {
	if _, err := db.ParseID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return models.ErrUnavailable
	}
	if _, ok := m.docs[id]; !ok {
		return models.ErrConfigNotFound
	}
	delete(m.docs, id)
	return nil
}

type fakeTester struct {
	err  error
	seen []models.ConnectionRequest
}

func (f *fakeTester) Test(_ context.Context, req models.ConnectionRequest) error {
	f.seen = append(f.seen, req)
	return f.err
}

func newTestServer(t *testing.T, store db.ConfigStore, tester ConnectionTester, opts Options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.ERROR, io.Discard)
	}
	return NewServer(store, tester, opts)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestConfigLifecycle(t *testing.T) {
	s := newTestServer(t, newMemoryStore(), &fakeTester{}, Options{})

	w, created := doRequest(t, s, http.MethodPost, "/new_config", map[string]interface{}{
		"name":    "warehouse",
		"db_type": "postgresql",
		"tables":  []string{"orders"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id, _ := created["_id"].(string)
	require.Len(t, id, 24)
	assert.Equal(t, "warehouse", created["name"])
	assert.NotContains(t, created, "description", "unset fields are not returned")

	w, got := doRequest(t, s, http.MethodGet, "/get_config/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, got)

	w, updated := doRequest(t, s, http.MethodPut, "/update_config/"+id, map[string]interface{}{"name": "x"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "x", updated["name"])
	assert.Equal(t, "postgresql", updated["db_type"])
	assert.Equal(t, id, updated["_id"])

	w, deleted := doRequest(t, s, http.MethodDelete, "/delete_config/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Config deleted successfully", deleted["message"])

	w, body := doRequest(t, s, http.MethodGet, "/get_config/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Config not found", body["detail"])
}

func TestListConfigs(t *testing.T) {
	store := newMemoryStore()
	s := newTestServer(t, store, &fakeTester{}, Options{})

	w, _ := doRequest(t, s, http.MethodGet, "/get_configs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	doRequest(t, s, http.MethodPost, "/new_config", map[string]interface{}{"name": "a"})
	doRequest(t, s, http.MethodPost, "/new_config", map[string]interface{}{"name": "b"})

	w, _ = doRequest(t, s, http.MethodGet, "/get_configs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0]["name"])
	assert.Equal(t, "b", list[1]["name"])
	for _, item := range list {
		assert.IsType(t, "", item["_id"])
	}
}

func TestInvalidIDs(t *testing.T) {
	s := newTestServer(t, newMemoryStore(), &fakeTester{}, Options{})

	cases := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/get_config/not-an-id", nil},
		{http.MethodPut, "/update_config/not-an-id", map[string]interface{}{"name": "x"}},
		{http.MethodDelete, "/delete_config/not-an-id", nil},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			w, body := doRequest(t, s, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid config ID format", body["detail"])
			assert.Equal(t, string(models.KindInvalidID), body["kind"])
		})
	}
}

func TestMissingIDs(t *testing.T) {
	s := newTestServer(t, newMemoryStore(), &fakeTester{}, Options{})
	id := primitive.NewObjectID().Hex()

	w, _ := doRequest(t, s, http.MethodGet, "/get_config/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, s, http.MethodPut, "/update_config/"+id, map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, s, http.MethodDelete, "/delete_config/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t, newMemoryStore(), &fakeTester{}, Options{})

	w, body := doRequest(t, s, http.MethodPost, "/new_config", map[string]interface{}{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(models.KindInvalidPayload), body["kind"])

	w, _ = doRequest(t, s, http.MethodPost, "/new_config", map[string]interface{}{"name": "x", "max_tokens": "many"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, s, http.MethodPost, "/new_config", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoopUpdate(t *testing.T) {
	store := newMemoryStore()
	s := newTestServer(t, store, &fakeTester{}, Options{})

	_, created := doRequest(t, s, http.MethodPost, "/new_config", map[string]interface{}{"name": "same"})
	id := created["_id"].(string)

	w, body := doRequest(t, s, http.MethodPut, "/update_config/"+id, map[string]interface{}{"name": "same"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Configuration could not be updated", body["detail"])

	store.allowNoop = true
	w, body = doRequest(t, s, http.MethodPut, "/update_config/"+id, map[string]interface{}{"name": "same"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "same", body["name"])
}

func TestStoreUnavailable(t *testing.T) {
	store := newMemoryStore()
	store.unavailable = true
	s := newTestServer(t, store, &fakeTester{}, Options{})

	w, body := doRequest(t, s, http.MethodGet, "/get_configs", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Collection not found", body["detail"])

	// malformed ids are still reported as such
	w, _ = doRequest(t, s, http.MethodGet, "/get_config/bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, string(models.KindUnavailable), body["kind"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newMemoryStore(), &fakeTester{}, Options{})

	w, body := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestDBConnection(t *testing.T) {
	tester := &fakeTester{}
	s := newTestServer(t, newMemoryStore(), tester, Options{})

	req := map[string]interface{}{
		"db_type":   "postgresql",
		"host_port": "localhost:5432",
		"database":  "app",
		"username":  "svc",
		"password":  "p@ss",
	}

	w, body := doRequest(t, s, http.MethodPost, "/test_db_connection", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Database connection successful", body["status"])
	require.Len(t, tester.seen, 1)
	assert.Equal(t, "p@ss", tester.seen[0].Password)

	tester.err = models.NewError(models.KindConnectionFailed, "connection refused", errors.New("connection refused"))
	w, body = doRequest(t, s, http.MethodPost, "/test_db_connection", req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "connection refused", body["detail"])

	w, _ = doRequest(t, s, http.MethodPost, "/test_db_connection", map[string]interface{}{"db_type": "mysql"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, tester.seen, 2, "invalid requests never reach the tester")
}

func TestDBConnectionRateLimit(t *testing.T) {
	tester := &fakeTester{}
	s := newTestServer(t, newMemoryStore(), tester, Options{RateLimit: 0.001, Burst: 2})

	req := map[string]interface{}{"db_type": "mysql", "host_port": "h:3306", "database": "d"}

	for i := 0; i < 2; i++ {
		w, _ := doRequest(t, s, http.MethodPost, "/test_db_connection", req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := doRequest(t, s, http.MethodPost, "/test_db_connection", req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, string(models.KindRateLimited), body["kind"])
	assert.Len(t, tester.seen, 2)
}

func TestCORSAndRequestID(t *testing.T) {
	s := newTestServer(t, newMemoryStore(), &fakeTester{}, Options{CORSOrigin: "*"})

	req := httptest.NewRequest(http.MethodOptions, "/new_config", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/get_configs", nil)
	req.Header.Set(logger.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(logger.RequestIDHeader))
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForKind(models.KindInvalidID))
	assert.Equal(t, http.StatusBadRequest, StatusForKind(models.KindOperationFailed))
	assert.Equal(t, http.StatusNotFound, StatusForKind(models.KindNotFound))
	assert.Equal(t, http.StatusTooManyRequests, StatusForKind(models.KindRateLimited))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(models.KindUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(models.KindConnectionFailed))
}
