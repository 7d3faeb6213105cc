// Package testutil provides shared test helpers and point-cloud fixtures.
package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request with an optional body.
func NewTestRequest(method, path string, body []byte, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

// Block returns n*n*n points of full confidence filling a cube whose lower
// corner is at (x, y, z), spaced step apart. Spacing below the cell size
// yields one connected cluster.
func Block(x, y, z float32, n int, step float32) l1points.Points {
	pts := make(l1points.Points, 0, n*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				pts = append(pts, l1points.Point{
					X:          x + float32(i)*step,
					Y:          y + float32(j)*step,
					Z:          z + float32(k)*step,
					Confidence: 1,
				})
			}
		}
	}
	return pts
}

// TwoBlocks returns two 3x3x3 blocks a metre apart along x, plus a few
// zero-confidence points between them that must be ignored.
func TwoBlocks() l1points.Points {
	pts := Block(0, 0, 0, 3, 0.01)
	pts = append(pts, Block(1, 0, 0, 3, 0.01)...)
	for i := 1; i < 5; i++ {
		pts = append(pts, l1points.Point{X: 0.2 * float32(i), Confidence: 0})
	}
	return pts
}
