package monitor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l3grid"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
	"github.com/banshee-data/depthcluster/internal/httputil"
	"github.com/banshee-data/depthcluster/internal/monitoring"
	"github.com/banshee-data/depthcluster/internal/security"
	"github.com/banshee-data/depthcluster/internal/version"
)

// ClusterResponse is the body of POST /api/depth/clusters.
type ClusterResponse struct {
	*l4clusters.Frame
	Meshes []l4clusters.Mesh `json:"meshes,omitempty"`
}

// pointsRequest is the JSON form of a posted cloud: [[x, y, z, confidence], ...].
type pointsRequest struct {
	Points [][]float32 `json:"points"`
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "depthcluster",
		"version":   version.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleClusters clusters a posted cloud and remembers it as the last frame.
// Bodies are either application/json ({"points": [[x,y,z,c], ...]}) or
// application/octet-stream (little-endian float32 quads).
// Query params:
//
//	mesh (optional, "true" adds a triangle mesh per box)
func (ws *WebServer) handleClusters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, ws.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("failed to read body: %v", err))
		return
	}

	points, err := decodePoints(r.Header.Get("Content-Type"), body)
	if err != nil {
		if errors.Is(err, errUnsupportedMedia) {
			httputil.WriteJSONError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}

	ws.clusterAndRespond(w, r, points)
}

// handleFile clusters a point file from the configured data directory.
// Query params:
//
//	name (required, path relative to the data directory)
//	mesh (optional, as for /api/depth/clusters)
func (ws *WebServer) handleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	if ws.dataDir == "" {
		httputil.NotFound(w, "no data directory configured")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		httputil.BadRequest(w, "missing 'name' parameter")
		return
	}

	path, err := security.ResolveWithinDirectory(ws.dataDir, name)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	points, err := l1points.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		httputil.NotFound(w, fmt.Sprintf("no such point file %q", name))
		return
	case err != nil:
		httputil.BadRequest(w, err.Error())
		return
	}
	ws.clusterAndRespond(w, r, points)
}

// clusterAndRespond runs points through the clusterer, records the frame as
// the last one, and writes it (with meshes when ?mesh=true).
func (ws *WebServer) clusterAndRespond(w http.ResponseWriter, r *http.Request, points l1points.Points) {
	frame, err := ws.clusterer.Cluster(points)
	switch {
	case errors.Is(err, l3grid.ErrResourceLimitExceeded):
		httputil.UnprocessableEntity(w, err.Error())
		return
	case errors.Is(err, l3grid.ErrInvalidInput):
		httputil.BadRequest(w, err.Error())
		return
	case err != nil:
		monitoring.Logf("depth cluster: %v", err)
		httputil.InternalServerError(w, err.Error())
		return
	}
	ws.setLast(frame, points)

	resp := ClusterResponse{Frame: frame}
	if withMesh, _ := strconv.ParseBool(r.URL.Query().Get("mesh")); withMesh {
		resp.Meshes = make([]l4clusters.Mesh, len(frame.Boxes))
		for i, b := range frame.Boxes {
			resp.Meshes[i] = l4clusters.BoxMesh(b)
		}
	}
	httputil.WriteJSONOK(w, resp)
}

var errUnsupportedMedia = errors.New("unsupported content type")

// decodePoints parses body according to contentType. An empty content type
// is treated as JSON. The returned slice is owned by the caller.
func decodePoints(contentType string, body []byte) (l1points.Points, error) {
	mediaType := "application/json"
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("bad content type %q: %w", contentType, err)
		}
		mediaType = mt
	}

	switch mediaType {
	case httputil.ContentTypeBinary:
		return l1points.DecodeBinary(body)
	case httputil.ContentTypeJSON:
		var req pointsRequest
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		pts := make(l1points.Points, len(req.Points))
		for i, p := range req.Points {
			if len(p) != l1points.FloatsPerPoint {
				return nil, fmt.Errorf("point %d has %d values, want %d (x, y, z, confidence)", i, len(p), l1points.FloatsPerPoint)
			}
			pts[i] = l1points.Point{X: p[0], Y: p[1], Z: p[2], Confidence: p[3]}
		}
		return pts, nil
	default:
		return nil, fmt.Errorf("%w %q: use %s or %s", errUnsupportedMedia, mediaType, httputil.ContentTypeJSON, httputil.ContentTypeBinary)
	}
}

// handleLast returns the most recent frame.
func (ws *WebServer) handleLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	last := ws.getLast()
	if last == nil {
		httputil.NotFound(w, "no frame clustered yet")
		return
	}
	httputil.WriteJSONOK(w, last.frame)
}

// handleChart renders the last frame with go-echarts.
// This is a debugging-only endpoint (no auth).
func (ws *WebServer) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	last := ws.getLast()
	if last == nil {
		httputil.NotFound(w, "no frame clustered yet")
		return
	}

	var buf bytes.Buffer
	if err := WriteChartPage(&buf, last.points, last.frame); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	httputil.WriteBody(w, httputil.ContentTypeHTML, buf.Bytes())
}

// handlePlot renders the last frame as a PNG projection.
// Query params:
//
//	plane (optional, xy|xz|yz; defaults to the configured plane)
//	size  (optional, inches, 2-20; default 8)
func (ws *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}

	plane := ws.plotPlane
	if q := r.URL.Query().Get("plane"); q != "" {
		p, err := ParsePlane(q)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		plane = p
	}
	size := 8.0
	if q := r.URL.Query().Get("size"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v < 2 || v > 20 {
			httputil.BadRequest(w, "size must be a number of inches between 2 and 20")
			return
		}
		size = v
	}

	last := ws.getLast()
	if last == nil {
		httputil.NotFound(w, "no frame clustered yet")
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("frame %s (%s)", last.frame.ID, plane.Name)
	if err := WritePlotPNG(&buf, last.points, last.frame.Boxes, plane, title, vg.Length(size)*vg.Inch); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	httputil.WriteBody(w, httputil.ContentTypePNG, buf.Bytes())
}
