package telegram

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
)

const chartWidth = 16

var severityIcons = map[entity.Severity]string{
	entity.SeverityInfo:    "ℹ️",
	entity.SeverityWarning: "⚠️",
	entity.SeverityError:   "🛑",
}

// FormatFindings строка на каждую детекцию и рекомендация под ней
func FormatFindings(model *app.RenderModel) string {
	var sb strings.Builder
	for i, f := range model.Findings {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.Line)
		if f.Advisory != nil {
			sb.WriteString("\n")
			if icon, ok := severityIcons[f.Advisory.Severity]; ok {
				sb.WriteString(icon)
				sb.WriteString(" ")
			}
			sb.WriteString(f.Advisory.Text)
		}
	}
	return sb.String()
}

// FormatReport сводка и текстовая диаграмма в моноширинном блоке (HTML parse mode).
// Колонки выравниваются по исходному тексту, экранирование после выравнивания.
func FormatReport(model *app.RenderModel, text entity.UIText) string {
	width := utf8.RuneCountInString(text.LabelColumn)
	for _, row := range model.Table {
		width = max(width, utf8.RuneCountInString(row.Label))
	}
	for _, bar := range model.Chart {
		width = max(width, utf8.RuneCountInString(bar.Label))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n<pre>", html.EscapeString(text.TableTitle))
	fmt.Fprintf(&sb, "%s  %s\n", padCell(text.LabelColumn, width), html.EscapeString(text.ConfColumn))
	for _, row := range model.Table {
		fmt.Fprintf(&sb, "%s  %s\n", padCell(row.Label, width), app.FormatConfidence(row.Confidence))
	}
	sb.WriteString("</pre>\n")

	fmt.Fprintf(&sb, "<b>%s</b>\n<pre>", html.EscapeString(text.ChartTitle))
	for _, bar := range model.Chart {
		n := int(bar.Percent / 100 * chartWidth)
		if n == 0 && bar.Count > 0 {
			n = 1
		}
		fmt.Fprintf(&sb, "%s  %s %d\n", padCell(bar.Label, width), strings.Repeat("█", n), bar.Count)
	}
	fmt.Fprintf(&sb, "</pre>\n%s: %d", html.EscapeString(text.SummaryTitle), model.Total)

	return sb.String()
}

// padCell дополняет текст пробелами до width символов и экранирует для HTML
func padCell(s string, width int) string {
	if pad := width - utf8.RuneCountInString(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return html.EscapeString(s)
}

// FormatHistory последние проверки чата
func FormatHistory(records []entity.InspectionRecord, text entity.UIText) string {
	if len(records) == 0 {
		return text.HistoryEmpty
	}

	var sb strings.Builder
	sb.WriteString(text.HistoryTitle)
	for _, r := range records {
		fmt.Fprintf(&sb, "\n%s: ", r.CreatedAt.Format("2006-01-02 15:04"))
		if r.Outcome == entity.OutcomeNoDamage {
			sb.WriteString(text.NoDamage)
			continue
		}
		parts := make([]string, 0, len(r.Counts))
		for _, row := range r.Counts.Rows() {
			parts = append(parts, fmt.Sprintf("%s×%d", row.Label, row.Count))
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	return sb.String()
}

// errorMessage текст для пользователя по ошибке конвейера
func errorMessage(err error, text entity.UIText) string {
	switch {
	case errors.Is(err, entity.ErrUnsupportedFormat):
		return text.Unsupported
	case errors.Is(err, entity.ErrInvalidImage):
		return text.InvalidImage
	case errors.Is(err, entity.ErrSessionBusy):
		return text.Busy
	default:
		return text.DetectorFailed
	}
}
