package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/infrastructure/advisory"
	"wall-inspector/internal/infrastructure/storage"
	"wall-inspector/internal/infrastructure/vision"
)

type fakeDetector struct {
	mu        sync.Mutex
	set       entity.DetectionSet
	err       error
	block     chan struct{}
	stagedOK  bool
	calls     int
	renderer  *vision.BoxRenderer
	threshold float64
}

func newFakeDetector(set entity.DetectionSet) *fakeDetector {
	return &fakeDetector{set: set, renderer: vision.NewBoxRenderer()}
}

func (d *fakeDetector) Predict(ctx context.Context, upload *entity.Upload, threshold float64) (entity.DetectionSet, error) {
	d.mu.Lock()
	d.calls++
	d.threshold = threshold
	_, statErr := os.Stat(upload.Path)
	d.stagedOK = upload.Path != "" && statErr == nil
	block := d.block
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	out := make(entity.DetectionSet, len(d.set))
	copy(out, d.set)
	return out, nil
}

func (d *fakeDetector) RenderWithBoxes(ctx context.Context, upload *entity.Upload, set entity.DetectionSet) ([]byte, error) {
	return d.renderer.Render(upload.Image, set)
}

type testEnv struct {
	detector  *fakeDetector
	pipeline  *Pipeline
	tempDir   string
	outputDir string
}

func newTestEnv(t *testing.T, set entity.DetectionSet) *testEnv {
	t.Helper()
	profile, err := advisory.Builtin("en")
	require.NoError(t, err)

	tempDir := t.TempDir()
	outputDir := t.TempDir()
	store := storage.NewFileArtifactStore(filepath.Join(outputDir, "output.jpg"), tempDir)
	detector := newFakeDetector(set)

	return &testEnv{
		detector:  detector,
		pipeline:  NewPipeline(detector, store, profile, PipelineOptions{}, nil, nil),
		tempDir:   tempDir,
		outputDir: outputDir,
	}
}

func (e *testEnv) requireTempEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.tempDir)
	require.NoError(t, err)
	require.Empty(t, entries, "staged uploads must be removed")
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 180, B: 170, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(160, 120), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(64, 48)))
	return buf.Bytes()
}

func crackAndMold() entity.DetectionSet {
	return entity.DetectionSet{
		{Label: "crack", Confidence: 0.81, Box: entity.BoundingBox{X1: 10, Y1: 10, X2: 60, Y2: 50}},
		{Label: "wall_mold", Confidence: 0.40, Box: entity.BoundingBox{X1: 80, Y1: 30, X2: 140, Y2: 100}},
	}
}

var errSidecarDown = errors.New("sidecar down")
