package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	turns  []TurnRecord
	scans  []ScanRecord
	err    error
	params ListParams
}

func (f *fakeStore) ListTurns(_ context.Context, params ListParams) ([]TurnRecord, int64, error) {
	f.params = params
	return f.turns, int64(len(f.turns)), f.err
}

func (f *fakeStore) ListScans(_ context.Context, params ListParams) ([]ScanRecord, int64, error) {
	f.params = params
	return f.scans, int64(len(f.scans)), f.err
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListTurns(t *testing.T) {
	store := &fakeStore{turns: []TurnRecord{{ID: uuid.New(), AgentType: "scanFood", Status: "success"}}}
	h := NewHandler(store)

	rec := get(h.ListTurns, "/api/audit/turns?page=2&page_size=5&agent_type=scanFood&status=success")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []TurnRecord `json:"data"`
		TotalCount int64        `json:"total_count"`
		Page       int          `json:"page"`
		PageSize   int          `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, int64(1), body.TotalCount)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 5, body.PageSize)

	assert.Equal(t, "scanFood", store.params.AgentType)
	assert.Equal(t, "success", store.params.Status)
}

func TestListTurns_EmptyIsArray(t *testing.T) {
	rec := get(NewHandler(&fakeStore{}).ListTurns, "/api/audit/turns")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total_count":0,"page":1,"page_size":20}`, rec.Body.String())
}

func TestListScans(t *testing.T) {
	store := &fakeStore{scans: []ScanRecord{{ID: uuid.New(), Endpoint: "analyze"}}}

	rec := get(NewHandler(store).ListScans, "/api/audit/scans?endpoint=analyze")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "analyze", store.params.Endpoint)
}

func TestList_NoDatabase(t *testing.T) {
	h := NewHandler(nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(h.ListTurns, "/api/audit/turns").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(h.ListScans, "/api/audit/scans").Code)
}

func TestList_StoreError(t *testing.T) {
	rec := get(NewHandler(&fakeStore{err: errors.New("boom")}).ListTurns, "/api/audit/turns")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseListParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=-1&page_size=500&from=2026-01-01T00:00:00Z&to=bad", nil)
	p := parseListParams(r)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	require.NotNil(t, p.From)
	assert.True(t, p.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, p.To)
}

func TestBuildFilter(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildFilter(ListParams{AgentType: "scanFood", Status: "error", From: &from}, true)
	assert.Equal(t, " WHERE agent_type = $1 AND status = $2 AND created_at >= $3", where)
	assert.Equal(t, []any{"scanFood", "error", from}, args)

	where, args = buildFilter(ListParams{AgentType: "scanFood"}, false)
	assert.Empty(t, where)
	assert.Nil(t, args)
}
