package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountLabels_TotalEqualsDetections(t *testing.T) {
	labels := []string{"crack", "wall_mold", "wall_stain"}
	for n := 0; n < 20; n++ {
		set := make(DetectionSet, 0, n)
		for i := 0; i < n; i++ {
			set = append(set, Detection{Label: labels[(i*7)%len(labels)], Confidence: 0.5})
		}
		counts := CountLabels(set)
		require.Equal(t, n, counts.Total(), fmt.Sprintf("n=%d", n))
	}
}

func TestSummaryCounts_Rows(t *testing.T) {
	counts := CountLabels(DetectionSet{
		{Label: "wall_mold"}, {Label: "crack"}, {Label: "crack"}, {Label: "wall_corrosion"},
	})

	require.Equal(t, []SummaryRow{
		{Label: "crack", Count: 2},
		{Label: "wall_corrosion", Count: 1},
		{Label: "wall_mold", Count: 1},
	}, counts.Rows())
}
