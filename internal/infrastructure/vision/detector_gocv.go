//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// GoCVDetector запускает YOLOv8, экспортированную в ONNX, через модуль DNN OpenCV.
type GoCVDetector struct {
	InputSize    int
	NMSThreshold float32

	// gocv.Net не потокобезопасен
	mu      sync.Mutex
	net     gocv.Net
	classes []string
}

// NewGoCVDetector загружает модель. classes: имена классов в порядке индексов модели.
func NewGoCVDetector(modelPath string, classes []string) (*GoCVDetector, error) {
	if len(classes) == 0 {
		return nil, errors.New("no class names for the model")
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}

	return &GoCVDetector{
		InputSize:    640,
		NMSThreshold: 0.45,
		net:          net,
		classes:      classes,
	}, nil
}

// Predict читает временный файл загрузки и возвращает детекции не ниже порога
func (d *GoCVDetector) Predict(ctx context.Context, upload *entity.Upload, threshold float64) (entity.DetectionSet, error) {
	_ = ctx
	mat, err := readMat(upload)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	size := image.Pt(d.InputSize, d.InputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	// Выход YOLOv8: [1, 4+классы, N]
	dims := out.Size()
	if len(dims) != 3 || dims[1] != 4+len(d.classes) {
		return nil, fmt.Errorf("unexpected model output shape %v for %d classes", dims, len(d.classes))
	}
	n := dims[2]
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	xScale := float64(mat.Cols()) / float64(d.InputSize)
	yScale := float64(mat.Rows()) / float64(d.InputSize)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
		raw     []entity.BoundingBox
	)
	for i := 0; i < n; i++ {
		best, bestScore := -1, float32(0)
		for c := range d.classes {
			if s := data[(4+c)*n+i]; s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || float64(bestScore) < threshold {
			continue
		}

		cx, cy := float64(data[i]), float64(data[n+i])
		w, h := float64(data[2*n+i]), float64(data[3*n+i])
		box := entity.BoundingBox{
			X1: (cx - w/2) * xScale,
			Y1: (cy - h/2) * yScale,
			X2: (cx + w/2) * xScale,
			Y2: (cy + h/2) * yScale,
		}
		raw = append(raw, box)
		boxes = append(boxes, box.Rect())
		scores = append(scores, bestScore)
		classes = append(classes, best)
	}

	if len(boxes) == 0 {
		return entity.DetectionSet{}, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, float32(threshold), d.NMSThreshold)
	set := make(entity.DetectionSet, 0, len(keep))
	for _, idx := range keep {
		set = append(set, entity.Detection{
			Label:      d.classes[classes[idx]],
			Confidence: float64(scores[idx]),
			Box:        raw[idx],
		})
	}
	return set, nil
}

// RenderWithBoxes рисует прямоугольники и подписи средствами OpenCV
func (d *GoCVDetector) RenderWithBoxes(ctx context.Context, upload *entity.Upload, set entity.DetectionSet) ([]byte, error) {
	_ = ctx
	mat, err := readMat(upload)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	for _, det := range set {
		c := LabelColor(det.Label)
		rect := det.Box.Rect()
		gocv.Rectangle(&mat, rect, c, 2)
		text := fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
		origin := image.Pt(rect.Min.X, maxInt(rect.Min.Y-4, 12))
		gocv.PutText(&mat, text, origin, gocv.FontHersheySimplex, 0.5, c, 1)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, 90})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close освобождает модель
func (d *GoCVDetector) Close() error {
	return d.net.Close()
}

// readMat читает изображение из временного файла, как это делает модель при predict(source=path)
func readMat(upload *entity.Upload) (gocv.Mat, error) {
	var mat gocv.Mat
	if upload.Path != "" {
		mat = gocv.IMRead(upload.Path, gocv.IMReadColor)
	} else {
		var err error
		mat, err = gocv.IMDecode(upload.Data, gocv.IMReadColor)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("failed to decode image: %w", err)
		}
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.New("failed to decode image")
	}
	return mat, nil
}

var _ port.DamageDetector = (*GoCVDetector)(nil)
