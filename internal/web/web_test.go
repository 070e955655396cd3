package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/config"
)

func testServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()
	return NewServer(cfg, true)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := testServer(t, nil)
	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMonthGridEndpoint(t *testing.T) {
	s := testServer(t, nil)

	rec := get(t, s, "/api/grid/month?year=2024&month=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Cells []struct {
			Date     string `json:"date"`
			InPeriod bool   `json:"in_period"`
			Today    bool   `json:"today"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2024, resp.Year)
	assert.Equal(t, 1, resp.Month)
	require.Len(t, resp.Cells, 42)

	inPeriod := 0
	for _, c := range resp.Cells {
		if c.InPeriod {
			inPeriod++
		}
	}
	assert.Equal(t, 29, inPeriod, "February 2024 is a leap month")
}

func TestMonthGridEndpointRejectsBadMonth(t *testing.T) {
	s := testServer(t, nil)
	rec := get(t, s, "/api/grid/month?year=2024&month=13")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeekGridEndpointNormalizesStart(t *testing.T) {
	s := testServer(t, nil)

	// Wednesday start rolls back to the Sunday of that week.
	rec := get(t, s, "/api/grid/week?start=2025-03-05")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Start string `json:"start"`
		Cells []struct {
			Date string `json:"date"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-03-02", resp.Start)
	require.Len(t, resp.Cells, 7)
	assert.Equal(t, "2025-03-08", resp.Cells[6].Date)
}

func TestWeekSlotsEndpointRejectsBadHourRange(t *testing.T) {
	s := testServer(t, nil)
	rec := get(t, s, "/api/slots/week?start=2025-03-02&from=16&to=8")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupsEndpointNoSources(t *testing.T) {
	s := testServer(t, nil)

	rec := get(t, s, "/api/groups?width=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PageSize int               `json:"page_size"`
		Groups   []json.RawMessage `json:"groups"`
		Excluded int               `json:"excluded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.PageSize, "narrow viewport selects one item per page")
	assert.Empty(t, resp.Groups)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "student", Password: "hunter2"}
	s := testServer(t, cfg)

	// API requires credentials.
	rec := get(t, s, "/api/grid/month")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// /health stays open for probes.
	rec = get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Correct credentials pass.
	req := httptest.NewRequest(http.MethodGet, "/api/grid/month", nil)
	req.SetBasicAuth("student", "hunter2")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIMissesAreNotServedHTML(t *testing.T) {
	s := testServer(t, nil)
	rec := get(t, s, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
