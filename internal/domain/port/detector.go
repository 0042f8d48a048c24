package port

import (
	"context"

	"wall-inspector/internal/domain/entity"
)

// DamageDetector интерфейс внешнего детектора повреждений
type DamageDetector interface {
	// Predict запускает модель на изображении и возвращает детекции не ниже порога
	Predict(ctx context.Context, upload *entity.Upload, threshold float64) (entity.DetectionSet, error)

	// RenderWithBoxes рисует рамки детекций поверх изображения и возвращает JPEG
	RenderWithBoxes(ctx context.Context, upload *entity.Upload, set entity.DetectionSet) ([]byte, error)
}
