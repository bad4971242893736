// File: internal/server/handlers_test.go
package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rfalmeida/detranbridge/internal/config"
	"github.com/rfalmeida/detranbridge/internal/portal"
)

// stubClient returns canned results per query type.
type stubClient struct {
	chassisRec  portal.Record
	chassisErr  error
	binRec      portal.Record
	binErr      error
	vehicles    []portal.Record
	vehiclesErr error

	lastBinType portal.BinKeyType
}

func (s *stubClient) LookupChassisStatus(ctx context.Context, chassis string) (portal.Record, error) {
	return s.chassisRec, s.chassisErr
}

func (s *stubClient) LookupBin(ctx context.Context, key string, keyType portal.BinKeyType) (portal.Record, error) {
	s.lastBinType = keyType
	return s.binRec, s.binErr
}

func (s *stubClient) LookupVehiclesByDocument(ctx context.Context, document string) ([]portal.Record, error) {
	return s.vehicles, s.vehiclesErr
}

func serve(t *testing.T, client RegistryClient, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(zap.NewNop(), config.NewDefaultConfig().Server, client)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func record(pairs ...string) portal.Record {
	r := portal.Record{}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// -- /chassis --

func TestGetChassisSuccess(t *testing.T) {
	client := &stubClient{chassisRec: record("chassis", "9BWZZZ377VT004251", "plate", "ABC1234")}

	rec := serve(t, client, "/chassis?q=9BWZZZ377VT004251")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chassis":"9BWZZZ377VT004251","plate":"ABC1234"}`, rec.Body.String())
}

func TestGetChassisMissingQuery(t *testing.T) {
	rec := serve(t, &stubClient{}, "/chassis")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, "{\"message\":\"Query `q` is required\"}", rec.Body.String())
}

func TestGetChassisInvalidInput(t *testing.T) {
	client := &stubClient{chassisErr: portal.ErrInvalidInput}

	rec := serve(t, client, "/chassis?q=SHORT")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"INVALID_CHASSIS"}`, rec.Body.String())
}

func TestGetChassisNotFound(t *testing.T) {
	// A nil record with nil error means no matching vehicle; the legacy
	// contract reports it the same way as a malformed chassis.
	rec := serve(t, &stubClient{}, "/chassis?q=9BWZZZ377VT004251")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"INVALID_CHASSIS"}`, rec.Body.String())
}

func TestGetChassisPortalFailure(t *testing.T) {
	client := &stubClient{chassisErr: errors.New("browser crashed")}

	rec := serve(t, client, "/chassis?q=9BWZZZ377VT004251")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"INTERNAL_ERROR"}`, rec.Body.String())
}

// The portal renders some fields empty; they must surface as explicit JSON
// nulls, not be dropped.
func TestGetChassisNullFields(t *testing.T) {
	r := portal.Record{}
	r.Set("chassis", "9BWZZZ377VT004251")
	r.Set("financed_name", "")

	rec := serve(t, &stubClient{chassisRec: r}, "/chassis?q=9BWZZZ377VT004251")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chassis":"9BWZZZ377VT004251","financed_name":null}`, rec.Body.String())
}

// -- /bin --

func TestGetBinSuccess(t *testing.T) {
	client := &stubClient{binRec: record("renavam", "00123456789")}

	rec := serve(t, client, "/bin?key=ABC1234&type=plate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, portal.BinKeyPlate, client.lastBinType)
}

func TestGetBinMissingKey(t *testing.T) {
	rec := serve(t, &stubClient{}, "/bin?type=plate")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, "{\"message\":\"Query `key` is required\"}", rec.Body.String())
}

func TestGetBinInvalidQueryType(t *testing.T) {
	for _, target := range []string{"/bin?key=ABC1234", "/bin?key=ABC1234&type=frame"} {
		rec := serve(t, &stubClient{}, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.JSONEq(t, `{"message":"INVALID_QUERY_TYPE"}`, rec.Body.String())
	}
}

func TestGetBinNegativeOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
	}{
		{"no data banner", &stubClient{binErr: portal.ErrNoData}},
		{"invalid key", &stubClient{binErr: portal.ErrInvalidInput}},
		{"nil record", &stubClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.client, "/bin?key=ABC1234&type=plate")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"INVALID_REQUEST"}`, rec.Body.String())
		})
	}
}

func TestGetBinPortalFailure(t *testing.T) {
	client := &stubClient{binErr: errors.New("timeout")}

	rec := serve(t, client, "/bin?key=ABC1234&type=renavam")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// -- /vehicles --

func TestGetVehiclesSuccess(t *testing.T) {
	client := &stubClient{vehicles: []portal.Record{
		record("plate", "ABC1234"),
		record("plate", "XYZ9A87"),
	}}

	rec := serve(t, client, "/vehicles?document=12345678901")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"plate":"ABC1234"},{"plate":"XYZ9A87"}]`, rec.Body.String())
}

func TestGetVehiclesEmptyList(t *testing.T) {
	rec := serve(t, &stubClient{}, "/vehicles?document=12345678901")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String(), "zero rows is a successful empty list, not an error")
}

func TestGetVehiclesMissingDocument(t *testing.T) {
	rec := serve(t, &stubClient{}, "/vehicles")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, "{\"message\":\"Query `document` is required\"}", rec.Body.String())
}

func TestGetVehiclesInvalidDocument(t *testing.T) {
	client := &stubClient{vehiclesErr: portal.ErrInvalidInput}

	rec := serve(t, client, "/vehicles?document=123")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"INVALID_REQUEST"}`, rec.Body.String())
}

// -- plumbing --

func TestHeartbeat(t *testing.T) {
	rec := serve(t, &stubClient{}, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scrapping")
}

func TestHealthz(t *testing.T) {
	rec := serve(t, &stubClient{}, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	rec := serve(t, &stubClient{}, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
