//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"wall-inspector/internal/domain/entity"
)

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVDetector заглушка (без OpenCV)
type GoCVDetector struct {
	InputSize    int
	NMSThreshold float32
}

// NewGoCVDetector возвращает ошибку, если сборка без тега gocv.
func NewGoCVDetector(modelPath string, classes []string) (*GoCVDetector, error) {
	_ = modelPath
	_ = classes
	return nil, errGoCVDisabled
}

// Predict возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Predict(ctx context.Context, upload *entity.Upload, threshold float64) (entity.DetectionSet, error) {
	return nil, errGoCVDisabled
}

// RenderWithBoxes возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) RenderWithBoxes(ctx context.Context, upload *entity.Upload, set entity.DetectionSet) ([]byte, error) {
	return nil, errGoCVDisabled
}

func (d *GoCVDetector) Close() error {
	return nil
}
