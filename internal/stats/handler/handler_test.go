package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epistats/internal/country"
	jwttoken "epistats/internal/jwt_token"
	"epistats/internal/platform/middleware"
	"epistats/internal/stats"
	dErrors "epistats/pkg/domain-errors"
	"epistats/pkg/testutil"
)

const signingKey = "test-signing-key"

type countingInvalidator struct {
	calls atomic.Int64
}

func (c *countingInvalidator) InvalidateExports(context.Context) { c.calls.Add(1) }

func newStatsRouter(t *testing.T) (http.Handler, *jwttoken.Service) {
	router, jwtSvc, _ := newStatsRouterWithInvalidator(t)
	return router, jwtSvc
}

func newStatsRouterWithInvalidator(t *testing.T) (http.Handler, *jwttoken.Service, *countingInvalidator) {
	t.Helper()

	registry := country.NewInMemoryStore()
	for _, name := range []string{"Italy", "France"} {
		_, err := registry.Add(context.Background(), name)
		require.NoError(t, err)
	}
	countrySvc := country.NewService(registry)
	svc := stats.NewService(countrySvc, stats.NewInMemoryStore(), nil)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	jwtSvc := jwttoken.NewService(signingKey, "epistats-test")
	invalidator := &countingInvalidator{}

	h := New(svc, countrySvc, invalidator, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)
	h.Register(r)
	r.Get("/data/{country}", h.HandleGet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSvc, logger))
		h.RegisterProtected(r)
	})
	return r, jwtSvc, invalidator
}

func bearerToken(t *testing.T, jwtSvc *jwttoken.Service) string {
	t.Helper()
	token, err := jwtSvc.GenerateToken("tester", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func insertBody(countryName, date string) map[string]any {
	return map[string]any{
		"country":         countryName,
		"date":            date,
		"totalCases":      100,
		"totalDeaths":     5,
		"totalRecoveries": 20,
		"activeCases":     75,
	}
}

func TestInsertRequiresAuth(t *testing.T) {
	router, _ := newStatsRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, dErrors.CodeUnauthorized)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, dErrors.CodeUnauthorized)
}

func TestInsertAndGetByDate(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)
	auth := bearerToken(t, jwtSvc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	created := testutil.UnmarshalResponse[StatisticResponse](t, rr)
	assert.Equal(t, "Italy", created.Country)
	assert.Equal(t, "2021-04-01", created.Date)
	assert.Equal(t, int64(100), created.TotalCases)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/data/Italy/2021-04-01"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	got := testutil.UnmarshalResponse[StatisticResponse](t, rr)
	assert.Equal(t, int64(75), got.ActiveCases)
}

func TestInsertDuplicateConflicts(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)
	auth := bearerToken(t, jwtSvc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, dErrors.CodeConflict)
}

func TestInsertValidation(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)
	auth := bearerToken(t, jwtSvc)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing country", map[string]any{"date": "2021-04-01", "totalCases": 1, "totalDeaths": 0, "totalRecoveries": 0, "activeCases": 1}},
		{"missing date", map[string]any{"country": "Italy", "totalCases": 1, "totalDeaths": 0, "totalRecoveries": 0, "activeCases": 1}},
		{"malformed date", insertBody("Italy", "01/04/2021")},
		{"missing count field", map[string]any{"country": "Italy", "date": "2021-04-01", "totalCases": 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/data", tc.body)
			req.Header.Set("Authorization", auth)
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, dErrors.CodeValidation)
		})
	}
}

func TestInsertUnknownCountry(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Atlantis", "2021-04-01"))
	req.Header.Set("Authorization", bearerToken(t, jwtSvc))
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, dErrors.CodeNotFound)
}

func TestUpsertReplacesCounts(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)
	auth := bearerToken(t, jwtSvc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)

	upsert := map[string]any{
		"date":            "2021-04-01",
		"totalCases":      110,
		"totalDeaths":     6,
		"totalRecoveries": 25,
		"activeCases":     79,
	}
	req = testutil.NewJSONRequest(t, http.MethodPut, "/data/day/Italy", upsert)
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	got := testutil.UnmarshalResponse[StatisticResponse](t, rr)
	assert.Equal(t, int64(110), got.TotalCases)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/data/Italy/2021-04-01"))
	fetched := testutil.UnmarshalResponse[StatisticResponse](t, rr)
	assert.Equal(t, int64(110), fetched.TotalCases)
	assert.Equal(t, int64(6), fetched.TotalDeaths)
}

func TestDeleteStatistic(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)
	auth := bearerToken(t, jwtSvc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)

	req = testutil.NewRequest(t, http.MethodDelete, "/data/Italy/2021-04-01")
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	msg := testutil.UnmarshalResponse[MessageResponse](t, rr)
	assert.Contains(t, msg.Message, "deleted")

	// Second delete finds nothing.
	req = testutil.NewRequest(t, http.MethodDelete, "/data/Italy/2021-04-01")
	req.Header.Set("Authorization", auth)
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, dErrors.CodeNotFound)
}

func TestGetCountryWithNoData(t *testing.T) {
	router, _ := newStatsRouter(t)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/data/France"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, dErrors.CodeNotFound)
}

func TestListCountries(t *testing.T) {
	router, _ := newStatsRouter(t)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/countries"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	names := testutil.UnmarshalResponse[[]string](t, rr)
	assert.Equal(t, []string{"France", "Italy"}, *names)
}

func TestListDates(t *testing.T) {
	router, jwtSvc := newStatsRouter(t)
	auth := bearerToken(t, jwtSvc)

	for _, d := range []string{"2021-04-02", "2021-04-01"} {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", d))
		req.Header.Set("Authorization", auth)
		testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)
	}

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/data/Italy/dates"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[DatesResponse](t, rr)
	assert.Equal(t, []string{"2021-04-01", "2021-04-02"}, resp.Dates)
}

func TestMutationsDropExportCache(t *testing.T) {
	router, jwtSvc, invalidator := newStatsRouterWithInvalidator(t)
	auth := bearerToken(t, jwtSvc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Italy", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)

	upsert := map[string]any{
		"date":            "2021-04-01",
		"totalCases":      110,
		"totalDeaths":     6,
		"totalRecoveries": 25,
		"activeCases":     79,
	}
	req = testutil.NewJSONRequest(t, http.MethodPut, "/data/day/Italy", upsert)
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusOK)

	req = testutil.NewRequest(t, http.MethodDelete, "/data/Italy/2021-04-01")
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusOK)

	// insert + upsert + delete each drop the export cache
	assert.Equal(t, int64(3), invalidator.calls.Load())

	// Rejected mutations leave the cache alone.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/data", insertBody("Atlantis", "2021-04-01"))
	req.Header.Set("Authorization", auth)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusNotFound)
	assert.Equal(t, int64(3), invalidator.calls.Load())
}

func TestMalformedDateParam(t *testing.T) {
	router, _ := newStatsRouter(t)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/data/Italy/not-a-date"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, dErrors.CodeValidation)
}
