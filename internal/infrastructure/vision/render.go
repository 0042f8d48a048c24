package vision

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"wall-inspector/internal/domain/entity"
)

// BoxRenderer рисует рамки детекций с подписью "класс уверенность" и кодирует результат в JPEG.
type BoxRenderer struct {
	Quality int
}

// NewBoxRenderer создаёт рендерер с качеством JPEG 90
func NewBoxRenderer() *BoxRenderer {
	return &BoxRenderer{Quality: 90}
}

// Render возвращает JPEG с рамками. Исходное изображение не меняется.
func (r *BoxRenderer) Render(img image.Image, set entity.DetectionSet) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("render: empty image")
	}

	// imaging.Clone переносит изображение в начало координат
	canvas := imaging.Clone(img)
	offset := img.Bounds().Min
	bounds := canvas.Bounds()
	thickness := maxInt(2, minInt(bounds.Dx(), bounds.Dy())/200)

	for _, d := range set {
		rect := d.Box.Rect().Sub(offset).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		c := LabelColor(d.Label)
		drawRect(canvas, rect, c, thickness)
		drawLabel(canvas, rect, fmt.Sprintf("%s %.2f", d.Label, d.Confidence), c)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(r.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// LabelColor стабильный цвет рамки для класса
func LabelColor(label string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	hue := float64(h.Sum32() % 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func drawRect(dst draw.Image, rect image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	bounds := dst.Bounds()
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness),
		image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y),
		image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(bounds), src, image.Point{}, draw.Src)
	}
}

// drawLabel рисует подпись над рамкой, а если сверху нет места, то внутри неё
func drawLabel(dst draw.Image, rect image.Rectangle, text string, bg color.Color) {
	face := basicfont.Face7x13
	const pad = 2
	width := font.MeasureString(face, text).Ceil() + 2*pad
	height := face.Height + 2*pad

	top := rect.Min.Y - height
	if top < dst.Bounds().Min.Y {
		top = rect.Min.Y
	}
	box := image.Rect(rect.Min.X, top, rect.Min.X+width, top+height).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(rect.Min.X+pad, top+pad+face.Ascent),
	}
	d.DrawString(text)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
