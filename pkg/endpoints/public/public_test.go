package public

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/processing/aggregate"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/service/compare"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/sessioncache"
	"github.com/mpapenbr/f1telemetry-compare-go/testsupport/basedata"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	loader := &basedata.Loader{Session: basedata.TwoDriverSession()}
	sessions := sessioncache.New(sessioncache.WithLoader(loader))
	results, err := resultcache.New(t.TempDir())
	require.NoError(t, err)
	svc := compare.InitCompareService(sessions, results, aggregate.New())

	srv := InitPublicEndpoints("localhost:0", svc, sessions, results)
	ts := httptest.NewServer(srv.srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, dest any) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // test helper
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dest))
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	var got map[string]string
	status := getJSON(t, ts.URL+"/healthz", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", got["status"])
}

func TestComparisonEndpoint(t *testing.T) {
	ts := newTestServer(t)
	var got map[string]any
	status := getJSON(t, ts.URL+
		"/api/v1/telemetry/comparison"+
		"?year=2024&event=Monza&session=R&driver1=VER&driver2=HAM&points=5",
		&got)

	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, got["deltaTime"], 5)
	assert.Len(t, got["axis"], 5)
	driver1, ok := got["driver1"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VER", driver1["driver"])
}

func TestComparisonEndpointErrors(t *testing.T) {
	ts := newTestServer(t)
	testcases := []struct {
		name  string
		query string
		want  int
	}{
		{
			name:  "missing year",
			query: "?event=Monza&session=R&driver1=VER&driver2=HAM",
			want:  http.StatusBadRequest,
		},
		{
			name:  "missing drivers",
			query: "?year=2024&event=Monza&session=R",
			want:  http.StatusBadRequest,
		},
		{
			name:  "unknown driver",
			query: "?year=2024&event=Monza&session=R&driver1=VER&driver2=XXX",
			want:  http.StatusNotFound,
		},
		{
			name:  "pre-telemetry season",
			query: "?year=2008&event=Monza&session=R&driver1=VER&driver2=HAM",
			want:  http.StatusNotFound,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			var got map[string]string
			status := getJSON(t,
				ts.URL+"/api/v1/telemetry/comparison"+tc.query, &got)
			assert.Equal(t, tc.want, status)
			assert.NotEmpty(t, got["detail"])
		})
	}
}

func TestDriversEndpoint(t *testing.T) {
	ts := newTestServer(t)
	var got []map[string]any
	status := getJSON(t,
		ts.URL+"/api/v1/drivers?year=2024&event=Monza&session=R", &got)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, got, 2)
	assert.Equal(t, "VER", got[0]["code"])
	assert.Equal(t, "#3671C6", got[0]["teamColor"])
}

func TestCacheStatsAndClearEndpoints(t *testing.T) {
	ts := newTestServer(t)
	// populate the result cache with one comparison
	var comparison map[string]any
	status := getJSON(t, ts.URL+
		"/api/v1/telemetry/comparison"+
		"?year=2024&event=Monza&session=R&driver1=VER&driver2=HAM&points=5",
		&comparison)
	require.Equal(t, http.StatusOK, status)

	var stats map[string]any
	status = getJSON(t, ts.URL+"/api/v1/cache/stats", &stats)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, stats["entries"], 1)

	req, err := http.NewRequest( //nolint:noctx // test helper
		http.MethodDelete, ts.URL+"/api/v1/cache", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var cleared map[string]int
	require.NoError(t,
		json.NewDecoder(resp.Body).Decode(&cleared))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, cleared["removedEntries"])
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz") //nolint:noctx // test helper
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
