package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
	"wall-inspector/internal/infrastructure/advisory"
	"wall-inspector/internal/infrastructure/storage"
	"wall-inspector/internal/infrastructure/vision"
)

type stubDetector struct {
	mu    sync.Mutex
	set   entity.DetectionSet
	err   error
	block chan struct{}
	calls int
}

func (d *stubDetector) Predict(ctx context.Context, upload *entity.Upload, threshold float64) (entity.DetectionSet, error) {
	d.mu.Lock()
	d.calls++
	block := d.block
	d.mu.Unlock()
	if block != nil {
		<-block
	}
	return d.set, d.err
}

func (d *stubDetector) RenderWithBoxes(ctx context.Context, upload *entity.Upload, set entity.DetectionSet) ([]byte, error) {
	return vision.NewBoxRenderer().Render(upload.Image, set)
}

func (d *stubDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type stubHealth struct{ err error }

func (h stubHealth) HealthCheck(ctx context.Context) error { return h.err }

type stubEvents struct{ connected bool }

func (e stubEvents) IsConnected() bool { return e.connected }

func newTestServer(t *testing.T, detector *stubDetector, journal port.InspectionJournal) *Server {
	t.Helper()
	profile, err := advisory.Builtin("en")
	require.NoError(t, err)

	store := storage.NewFileArtifactStore(filepath.Join(t.TempDir(), "output.jpg"), t.TempDir())
	pipeline := app.NewPipeline(detector, store, profile, app.PipelineOptions{}, nil, nil)
	inspections := app.NewInspectionService(app.NewSessionService(storage.NewMemorySessionRepository()), pipeline, journal, nil, nil)

	return NewServer(Options{
		Inspections: inspections,
		Artifacts:   store,
		Metrics:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		Health:      stubHealth{},
	})
}

func jpegUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 190, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func crackAndMold() entity.DetectionSet {
	return entity.DetectionSet{
		{Label: "crack", Confidence: 0.81, Box: entity.BoundingBox{X1: 5, Y1: 5, X2: 50, Y2: 40}},
		{Label: "wall_mold", Confidence: 0.40, Box: entity.BoundingBox{X1: 60, Y1: 30, X2: 110, Y2: 80}},
	}
}

func TestServer_IndexSetsSession(t *testing.T) {
	srv := newTestServer(t, &stubDetector{}, nil)

	rec := serve(srv.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="image"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookie, cookies[0].Name)
}

func TestServer_InspectAPIAndDownload(t *testing.T) {
	srv := newTestServer(t, &stubDetector{set: crackAndMold()}, nil)
	h := srv.Handler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/download", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, uploadRequest(t, "/api/inspect", "wall.jpg", jpegUpload(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Outcome  string `json:"outcome"`
		Findings []struct {
			Label    string `json:"label"`
			Advisory *struct {
				Severity string `json:"severity"`
			} `json:"advisory"`
		} `json:"findings"`
		Summary     []entity.SummaryRow `json:"summary"`
		DownloadURL string              `json:"download_url"`
		Download    struct {
			Filename string `json:"filename"`
		} `json:"download"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(entity.OutcomeDamageDetected), resp.Outcome)
	require.Len(t, resp.Findings, 2)
	require.NotNil(t, resp.Findings[0].Advisory)
	require.Equal(t, "error", resp.Findings[0].Advisory.Severity)
	require.Equal(t, []entity.SummaryRow{{Label: "crack", Count: 1}, {Label: "wall_mold", Count: 1}}, resp.Summary)
	require.Equal(t, "/download", resp.DownloadURL)
	require.Equal(t, "detected_wall_damage.jpg", resp.Download.Filename)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="detected_wall_damage.jpg"`)
	_, err := jpeg.Decode(rec.Body)
	require.NoError(t, err)
}

func TestServer_InspectPage(t *testing.T) {
	srv := newTestServer(t, &stubDetector{set: crackAndMold()}, nil)

	rec := serve(srv.Handler(), uploadRequest(t, "/inspect", "wall.png", jpegUpload(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Repair it promptly")
	require.Contains(t, body, `class="message error"`)
	require.Contains(t, body, "data:image/jpeg;base64,")
	// ссылка на собственный результат страницы, а не на общий /download
	require.NotContains(t, body, `href="/download"`)
	require.Regexp(t, `<a class="download" href="data:image/jpeg;base64,[^"]+" download="detected_wall_damage.jpg">`, body)
}

func TestServer_NoDamagePage(t *testing.T) {
	srv := newTestServer(t, &stubDetector{}, nil)

	rec := serve(srv.Handler(), uploadRequest(t, "/inspect", "wall.jpg", jpegUpload(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No damage detected")
	require.NotContains(t, rec.Body.String(), `class="download"`)
}

func TestServer_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		detector *stubDetector
		filename string
		data     func(t *testing.T) []byte
		status   int
	}{
		{"invalid image", &stubDetector{}, "wall.jpg", func(*testing.T) []byte { return []byte("nope") }, http.StatusBadRequest},
		{"unsupported", &stubDetector{}, "wall.gif", jpegUpload, http.StatusUnsupportedMediaType},
		{"detector down", &stubDetector{err: errors.New("connection refused")}, "wall.jpg", jpegUpload, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.detector, nil)
			rec := serve(srv.Handler(), uploadRequest(t, "/api/inspect", tt.filename, tt.data(t)))
			require.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["message"])
		})
	}
}

func TestServer_MissingField(t *testing.T) {
	srv := newTestServer(t, &stubDetector{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/inspect", strings.NewReader(""))
	rec := serve(srv.Handler(), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_BusySession(t *testing.T) {
	detector := &stubDetector{set: crackAndMold(), block: make(chan struct{})}
	srv := newTestServer(t, detector, nil)
	h := srv.Handler()
	cookie := &http.Cookie{Name: sessionCookie, Value: uuid.NewString()}

	first := uploadRequest(t, "/api/inspect", "wall.jpg", jpegUpload(t))
	first.AddCookie(cookie)
	done := make(chan int, 1)
	go func() { done <- serve(h, first).Code }()

	require.Eventually(t, func() bool { return detector.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	second := uploadRequest(t, "/api/inspect", "wall.jpg", jpegUpload(t))
	second.AddCookie(cookie)
	require.Equal(t, http.StatusConflict, serve(h, second).Code)

	close(detector.block)
	require.Equal(t, http.StatusOK, <-done)
}

func TestServer_Journal(t *testing.T) {
	h := newTestServer(t, &stubDetector{}, nil).Handler()
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/journal", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	journal, err := storage.NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	h = newTestServer(t, &stubDetector{set: crackAndMold()}, journal).Handler()
	rec = serve(h, uploadRequest(t, "/api/inspect", "wall.jpg", jpegUpload(t)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/journal?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Inspections []json.RawMessage `json:"inspections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Inspections, 1)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/journal?limit=x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubDetector{}, nil)
	h := srv.Handler()

	health := func() (int, map[string]string) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := health()
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "disabled", body["nats"])

	srv.events = stubEvents{connected: true}
	_, body = health()
	require.Equal(t, "connected", body["nats"])

	// брокер не влияет на код ответа
	srv.events = stubEvents{}
	code, body = health()
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "disconnected", body["nats"])

	srv.health = stubHealth{err: errors.New("sidecar unreachable")}
	code, body = health()
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "degraded", body["status"])

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, "metrics", rec.Body.String())
}


func TestServer_UploadTooLarge(t *testing.T) {
	detector := &stubDetector{set: crackAndMold()}
	srv := newTestServer(t, detector, nil)
	srv.maxBytes = 256
	h := srv.Handler()

	t.Run("declared length", func(t *testing.T) {
		rec := serve(h, uploadRequest(t, "/api/inspect", "wall.jpg", jpegUpload(t)))
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, srv.profile.Text.InvalidImage, body["message"])
	})

	t.Run("streamed body", func(t *testing.T) {
		req := uploadRequest(t, "/api/inspect", "wall.jpg", jpegUpload(t))
		req.ContentLength = -1
		rec := serve(h, req)
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	require.Zero(t, detector.Calls())
}
