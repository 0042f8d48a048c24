package app

import (
	"fmt"
	"math"

	"wall-inspector/internal/domain/entity"
)

// MIMEJPEG тип итогового изображения
const MIMEJPEG = "image/jpeg"

// RenderModel всё, что нужно показать пользователю после одной загрузки.
// Не зависит от способа отображения (веб-страница, JSON, Telegram).
type RenderModel struct {
	Outcome       entity.Outcome      `json:"outcome"`
	Message       string              `json:"message,omitempty"`
	Input         InputImage          `json:"input"`
	Findings      []Finding           `json:"findings"`
	Table         []TableRow          `json:"table,omitempty"`
	Summary       []entity.SummaryRow `json:"summary,omitempty"`
	Chart         []ChartBar          `json:"chart,omitempty"`
	Total         int                 `json:"total"`
	UnknownLabels []string            `json:"unknown_labels,omitempty"`
	Download      *Download           `json:"download,omitempty"`
	Annotated     []byte              `json:"-"`
}

// InputImage сведения о входном изображении
type InputImage struct {
	Filename string `json:"filename,omitempty"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Data     []byte `json:"-"`
}

// MIMEType тип исходных байтов
func (i InputImage) MIMEType() string {
	return "image/" + i.Format
}

// Finding одна детекция для показа
type Finding struct {
	Label          string           `json:"label"`
	Confidence     float64          `json:"confidence"`
	ConfidenceText string           `json:"confidence_text"`
	Line           string           `json:"line"`
	Advisory       *entity.Advisory `json:"advisory,omitempty"`
}

// TableRow строка таблицы (класс, уверенность)
type TableRow struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ChartBar столбец диаграммы; Percent: высота относительно самого большого столбца
type ChartBar struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Download описание файла для скачивания
type Download struct {
	Path     string `json:"-"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
}

// HasDownload сообщает, что есть размеченное изображение
func (m *RenderModel) HasDownload() bool {
	return m.Download != nil
}

// RoundConfidence округляет уверенность до двух знаков. Используется только для показа.
func RoundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}

// FormatConfidence форматирует уверенность как "0.81"
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}

func buildChart(rows []entity.SummaryRow) []ChartBar {
	max := 0
	for _, r := range rows {
		if r.Count > max {
			max = r.Count
		}
	}
	bars := make([]ChartBar, 0, len(rows))
	for _, r := range rows {
		pct := 0.0
		if max > 0 {
			pct = math.Round(float64(r.Count)/float64(max)*1000) / 10
		}
		bars = append(bars, ChartBar{Label: r.Label, Count: r.Count, Percent: pct})
	}
	return bars
}
