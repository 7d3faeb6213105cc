package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
	"github.com/banshee-data/depthcluster/internal/httputil"
	"github.com/banshee-data/depthcluster/internal/testutil"
)

func newTestServer(t *testing.T) *WebServer {
	t.Helper()
	ws, err := NewWebServer(WebServerConfig{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	return ws
}

func serve(ws *WebServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, pts l1points.Points) []byte {
	t.Helper()
	rows := make([][]float32, len(pts))
	for i, p := range pts {
		rows[i] = []float32{p.X, p.Y, p.Z, p.Confidence}
	}
	b, err := json.Marshal(map[string]interface{}{"points": rows})
	require.NoError(t, err)
	return b
}

func postCloud(t *testing.T, ws *WebServer, pts l1points.Points) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewTestRequest(http.MethodPost, "/api/depth/clusters", jsonBody(t, pts), httputil.ContentTypeJSON)
	return serve(ws, req)
}

func TestNewWebServer_BadPlane(t *testing.T) {
	_, err := NewWebServer(WebServerConfig{PlotPlane: "xw"})
	assert.Error(t, err)

	ws, err := NewWebServer(WebServerConfig{PlotPlane: "YZ"})
	require.NoError(t, err)
	assert.Equal(t, "yz", ws.plotPlane.Name)
}

func TestHandleHealth(t *testing.T) {
	ws := newTestServer(t)
	rec := serve(ws, testutil.NewTestRequest(http.MethodGet, "/health", nil, ""))

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "depthcluster", body["service"])
}

func TestHandleClusters_JSON(t *testing.T) {
	ws := newTestServer(t)
	rec := postCloud(t, ws, testutil.TwoBlocks())

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp ClusterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Frame)
	assert.Len(t, resp.Boxes, 2)
	assert.Len(t, resp.Metrics, 2)
	assert.Equal(t, 58, resp.InputPoints)
	assert.Empty(t, resp.Meshes)

	require.NotNil(t, ws.getLast())
	assert.Equal(t, resp.ID, ws.getLast().frame.ID)
}

func TestHandleClusters_BinaryWithMesh(t *testing.T) {
	ws := newTestServer(t)
	body := l1points.EncodeBinary(testutil.TwoBlocks())
	req := testutil.NewTestRequest(http.MethodPost, "/api/depth/clusters?mesh=true", body, httputil.ContentTypeBinary)
	rec := serve(ws, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp ClusterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Boxes, 2)
	require.Len(t, resp.Meshes, 2)
	assert.Equal(t, l4clusters.BoxMesh(resp.Boxes[1]), resp.Meshes[1])
}

func TestHandleClusters_EmptyCloud(t *testing.T) {
	ws := newTestServer(t)
	rec := postCloud(t, ws, l1points.Points{{X: 1, Confidence: 0}})

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp ClusterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Boxes)
}

func TestHandleClusters_Errors(t *testing.T) {
	small, err := NewWebServer(WebServerConfig{
		Clusterer:    l4clusters.NewClusterer(l4clusters.Params{CellSize: 0.02, MinClusterElements: 1, MaxVoxels: 100}),
		MaxBodyBytes: 1024,
	})
	require.NoError(t, err)

	cases := []struct {
		name        string
		method      string
		body        []byte
		contentType string
		want        int
	}{
		{"wrong method", http.MethodGet, nil, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, []byte("{"), httputil.ContentTypeJSON, http.StatusBadRequest},
		{"unknown field", http.MethodPost, []byte(`{"pts":[]}`), httputil.ContentTypeJSON, http.StatusBadRequest},
		{"short point", http.MethodPost, []byte(`{"points":[[1,2,3]]}`), httputil.ContentTypeJSON, http.StatusBadRequest},
		{"ragged binary", http.MethodPost, []byte{1, 2, 3}, httputil.ContentTypeBinary, http.StatusBadRequest},
		{"unsupported media", http.MethodPost, []byte("x"), "text/plain", http.StatusUnsupportedMediaType},
		{"too large", http.MethodPost, bytes.Repeat([]byte{0}, 2048), httputil.ContentTypeBinary, http.StatusRequestEntityTooLarge},
		{"resource limit", http.MethodPost, []byte(`{"points":[[0,0,0,1],[1,1,1,1]]}`), httputil.ContentTypeJSON, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(small, testutil.NewTestRequest(tc.method, "/api/depth/clusters", tc.body, tc.contentType))
			testutil.AssertStatusCode(t, rec.Code, tc.want)
			assert.Equal(t, httputil.ContentTypeJSON, rec.Header().Get("Content-Type"))
		})
	}
	assert.Nil(t, small.getLast(), "failed requests must not replace the last frame")
}

func TestHandleLast(t *testing.T) {
	ws := newTestServer(t)
	rec := serve(ws, testutil.NewTestRequest(http.MethodGet, "/api/depth/last", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	postCloud(t, ws, testutil.TwoBlocks())

	rec = serve(ws, testutil.NewTestRequest(http.MethodGet, "/api/depth/last", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var frame l4clusters.Frame
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&frame))
	assert.Len(t, frame.Boxes, 2)

	rec = serve(ws, testutil.NewTestRequest(http.MethodDelete, "/api/depth/last", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestHandleChart(t *testing.T) {
	ws := newTestServer(t)
	rec := serve(ws, testutil.NewTestRequest(http.MethodGet, "/debug/depth/chart", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	postCloud(t, ws, testutil.TwoBlocks())
	rec = serve(ws, testutil.NewTestRequest(http.MethodGet, "/debug/depth/chart", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, httputil.ContentTypeHTML, rec.Header().Get("Content-Type"))
	html := rec.Body.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Depth clusters")
	assert.Contains(t, html, "Cluster sizes")
}

func TestHandlePlot(t *testing.T) {
	ws := newTestServer(t)
	rec := serve(ws, testutil.NewTestRequest(http.MethodGet, "/debug/depth/plot.png", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	postCloud(t, ws, testutil.TwoBlocks())
	for _, q := range []string{"", "?plane=xz", "?plane=YZ&size=4"} {
		rec = serve(ws, testutil.NewTestRequest(http.MethodGet, "/debug/depth/plot.png"+q, nil, ""))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		assert.Equal(t, httputil.ContentTypePNG, rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"), "query %q", q)
	}

	for _, q := range []string{"?plane=xw", "?size=0", "?size=abc"} {
		rec = serve(ws, testutil.NewTestRequest(http.MethodGet, "/debug/depth/plot.png"+q, nil, ""))
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ws := newTestServer(t)
	postCloud(t, ws, testutil.TwoBlocks())

	rec := serve(ws, testutil.NewTestRequest(http.MethodGet, "/metrics", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "depth_cluster_frames_total")
	assert.Contains(t, rec.Body.String(), "depth_cluster_frame_duration_seconds")
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	ws := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Start(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestHandleFile(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "frame.bin"), l1points.EncodeBinary(testutil.TwoBlocks()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.md"), []byte("x"), 0o644))

	ws, err := NewWebServer(WebServerConfig{DataDir: dataDir})
	require.NoError(t, err)

	rec := serve(ws, testutil.NewTestRequest(http.MethodPost, "/api/depth/file?name=frame.bin&mesh=1", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp ClusterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Boxes, 2)
	assert.Len(t, resp.Meshes, 2)
	require.NotNil(t, ws.getLast())

	cases := []struct {
		name   string
		method string
		query  string
		want   int
	}{
		{"wrong method", http.MethodGet, "?name=frame.bin", http.StatusMethodNotAllowed},
		{"missing name", http.MethodPost, "", http.StatusBadRequest},
		{"traversal", http.MethodPost, "?name=../../etc/passwd.csv", http.StatusBadRequest},
		{"not found", http.MethodPost, "?name=other.bin", http.StatusNotFound},
		{"unknown format", http.MethodPost, "?name=notes.md", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(ws, testutil.NewTestRequest(tc.method, "/api/depth/file"+tc.query, nil, ""))
			testutil.AssertStatusCode(t, rec.Code, tc.want)
		})
	}

	disabled := newTestServer(t)
	rec = serve(disabled, testutil.NewTestRequest(http.MethodPost, "/api/depth/file?name=frame.bin", nil, ""))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}
