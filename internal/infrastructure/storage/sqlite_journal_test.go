package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wall-inspector/internal/domain/entity"
)

func TestSQLiteJournal_RecordAndRecent(t *testing.T) {
	journal, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "db", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	ctx := context.Background()

	first := &entity.InspectionRecord{
		SessionID: "tg:1",
		CreatedAt: time.Now().UTC().Add(-time.Minute),
		Outcome:   entity.OutcomeDamageDetected,
		Total:     2,
		Counts:    entity.SummaryCounts{"crack": 1, "wall_mold": 1},
	}
	require.NoError(t, journal.Record(ctx, first))
	require.NotZero(t, first.ID)

	second := &entity.InspectionRecord{
		SessionID:     "tg:2",
		Outcome:       entity.OutcomeDamageDetected,
		Total:         1,
		Counts:        entity.SummaryCounts{"spalling": 1},
		UnknownLabels: []string{"spalling"},
	}
	require.NoError(t, journal.Record(ctx, second))

	all, err := journal.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)
	require.Equal(t, []string{"spalling"}, all[0].UnknownLabels)

	own, err := journal.Recent(ctx, "tg:1", 10)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, entity.SummaryCounts{"crack": 1, "wall_mold": 1}, own[0].Counts)
	require.Equal(t, own[0].Counts.Total(), own[0].Total)
}
