package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wall-inspector/internal/domain/entity"
)

func TestHTTPDetector_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/predict":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Equal(t, "0.25", r.FormValue("conf"))
			require.Equal(t, "best.pt", r.FormValue("model"))

			file, _, err := r.FormFile("image")
			require.NoError(t, err)
			data, _ := io.ReadAll(file)
			require.Equal(t, "image-bytes", string(data))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"detections": []map[string]any{
					{"label": "crack", "confidence": 0.81, "box": []float64{1, 2, 30, 40}},
					{"label": "wall_mold", "confidence": 0.40, "box": []float64{5, 6, 7, 8}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "upload.jpg")
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o644))

	det := NewHTTPDetector(srv.URL+"/", "best.pt", time.Second)
	ctx := context.Background()
	require.NoError(t, det.HealthCheck(ctx))

	set, err := det.Predict(ctx, &entity.Upload{Path: path, Format: "jpeg"}, 0.25)
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.Equal(t, "crack", set[0].Label)
	require.Equal(t, entity.BoundingBox{X1: 1, Y1: 2, X2: 30, Y2: 40}, set[0].Box)
	require.Equal(t, 0.40, set[1].Confidence)
}

func TestHTTPDetector_Errors(t *testing.T) {
	var body string
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	det := NewHTTPDetector(srv.URL, "", time.Second)
	upload := &entity.Upload{Data: []byte("x"), Format: "png"}
	ctx := context.Background()

	status, body = http.StatusInternalServerError, "model crashed"
	_, err := det.Predict(ctx, upload, 0.25)
	require.ErrorContains(t, err, "model crashed")

	status, body = http.StatusOK, `{"detections":[{"label":"crack","confidence":0.5,"box":[1,2]}]}`
	_, err = det.Predict(ctx, upload, 0.25)
	require.ErrorContains(t, err, "coordinates")

	status, body = http.StatusOK, `{"detections":[{"label":"crack","confidence":1.5,"box":[1,2,3,4]}]}`
	_, err = det.Predict(ctx, upload, 0.25)
	require.ErrorContains(t, err, "out of range")

	status, body = http.StatusOK, `{"detections":[]}`
	set, err := det.Predict(ctx, upload, 0.25)
	require.NoError(t, err)
	require.True(t, set.Empty())

	status = http.StatusServiceUnavailable
	require.Error(t, det.HealthCheck(ctx))
}
