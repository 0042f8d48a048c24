package entity

import (
	"image"
	"math"
)

// BoundingBox рамка повреждения в пикселях исходного изображения (левый верхний и правый нижний углы)
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center возвращает координаты центра рамки
func (b BoundingBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Rect округляет рамку до целочисленного прямоугольника
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X1)), int(math.Round(b.Y1)),
		int(math.Round(b.X2)), int(math.Round(b.Y2)),
	).Canon()
}

// Detection один найденный детектором экземпляр повреждения
type Detection struct {
	Label      string      `json:"label"`      // класс повреждения
	Confidence float64     `json:"confidence"` // уверенность модели, [0, 1]
	Box        BoundingBox `json:"box"`        // рамка
}

// DetectionSet упорядоченный список детекций одного изображения
type DetectionSet []Detection

// AboveThreshold возвращает детекции с уверенностью не ниже порога, сохраняя порядок.
func (s DetectionSet) AboveThreshold(threshold float64) DetectionSet {
	out := make(DetectionSet, 0, len(s))
	for _, d := range s {
		if d.Confidence >= threshold {
			out = append(out, d)
		}
	}
	return out
}

// Empty сообщает, что повреждений не найдено
func (s DetectionSet) Empty() bool {
	return len(s) == 0
}
