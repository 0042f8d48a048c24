package telegram

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/infrastructure/advisory"
)

func sampleModel() *app.RenderModel {
	crackAdvice := entity.Advisory{Text: "Repair the crack.", Severity: entity.SeverityError}
	return &app.RenderModel{
		Outcome: entity.OutcomeDamageDetected,
		Findings: []app.Finding{
			{Label: "crack", Confidence: 0.81, ConfidenceText: "0.81", Line: "Detected: crack (confidence: 0.81)", Advisory: &crackAdvice},
			{Label: "graffiti", Confidence: 0.5, ConfidenceText: "0.50", Line: "Detected: graffiti (confidence: 0.50)"},
		},
		Table:   []app.TableRow{{Label: "crack", Confidence: 0.81}, {Label: "graffiti", Confidence: 0.5}},
		Summary: []entity.SummaryRow{{Label: "crack", Count: 2}, {Label: "graffiti", Count: 1}},
		Chart: []app.ChartBar{
			{Label: "crack", Count: 2, Percent: 100},
			{Label: "graffiti", Count: 1, Percent: 50},
		},
		Total: 3,
	}
}

func TestFormatFindings(t *testing.T) {
	out := FormatFindings(sampleModel())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Detected: crack (confidence: 0.81)", lines[0])
	require.Equal(t, "🛑 Repair the crack.", lines[1])
	require.Equal(t, "Detected: graffiti (confidence: 0.50)", lines[2])
}

func TestFormatReport(t *testing.T) {
	profile, err := advisory.Builtin("en")
	require.NoError(t, err)

	out := FormatReport(sampleModel(), profile.Text)
	require.Contains(t, out, "<pre>")
	require.Contains(t, out, "0.81")
	require.Contains(t, out, strings.Repeat("█", chartWidth)+" 2")
	require.Contains(t, out, strings.Repeat("█", chartWidth/2)+" 1")
	require.True(t, strings.HasSuffix(out, fmt.Sprintf("%s: 3", profile.Text.SummaryTitle)))
}

func TestFormatHistory(t *testing.T) {
	profile, err := advisory.Builtin("en")
	require.NoError(t, err)
	text := profile.Text

	require.Equal(t, text.HistoryEmpty, FormatHistory(nil, text))

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	out := FormatHistory([]entity.InspectionRecord{
		{CreatedAt: at, Outcome: entity.OutcomeDamageDetected, Total: 3, Counts: entity.SummaryCounts{"crack": 2, "wall_mold": 1}},
		{CreatedAt: at, Outcome: entity.OutcomeNoDamage},
	}, text)
	require.Contains(t, out, "2024-05-01 12:30: crack×2, wall_mold×1")
	require.Contains(t, out, text.NoDamage)
}

func TestErrorMessage(t *testing.T) {
	profile, err := advisory.Builtin("en")
	require.NoError(t, err)
	text := profile.Text

	require.Equal(t, text.Unsupported, errorMessage(fmt.Errorf("wrap: %w", entity.ErrUnsupportedFormat), text))
	require.Equal(t, text.InvalidImage, errorMessage(entity.ErrInvalidImage, text))
	require.Equal(t, text.Busy, errorMessage(entity.ErrSessionBusy, text))
	require.Equal(t, text.DetectorFailed, errorMessage(entity.ErrDetectorFailed, text))
	require.Equal(t, "tg:42", sessionID(42))
}

func TestFormatReport_EscapesAfterPadding(t *testing.T) {
	profile, err := advisory.Builtin("en")
	require.NoError(t, err)
	text := profile.Text
	text.LabelColumn = "<Damage>"
	text.ConfColumn = "Conf & score"

	model := &app.RenderModel{
		Table: []app.TableRow{{Label: "a&b", Confidence: 0.5}, {Label: "crack", Confidence: 0.9}},
		Chart: []app.ChartBar{{Label: "a&b", Count: 1, Percent: 100}},
		Total: 2,
	}

	out := FormatReport(model, text)
	require.NotContains(t, out, "<Damage>")
	require.Contains(t, out, "&lt;Damage&gt;  Conf &amp; score\n")
	// ширина колонки 8 символов по "<Damage>"
	require.Contains(t, out, "a&amp;b       0.50\n")
	require.Contains(t, out, "crack     0.90\n")
	require.Contains(t, out, "a&amp;b       "+strings.Repeat("█", chartWidth)+" 1\n")
}
