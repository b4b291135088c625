package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArchive_AppendAndRange(t *testing.T) {
	a, err := NewArchive(":memory:")
	require.NoError(t, err)
	defer a.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		e := Entry{
			Timestamp: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Action:    "entry",
			Status:    StatusSuccess,
		}
		require.NoError(t, a.Append(e))
	}

	got, err := a.Range(context.Background(), base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, base.Format(time.RFC3339), got[0].Timestamp)

	all, err := a.Range(context.Background(), base.Add(-time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestArchive_RangeOutsideWindowIsEmpty(t *testing.T) {
	a, err := NewArchive(":memory:")
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Append(Entry{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Action:    "entry",
		Status:    StatusError,
	}))

	got, err := a.Range(context.Background(),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestHistoryLog_MirrorsAppendsIntoArchive(t *testing.T) {
	a, err := NewArchive(":memory:")
	require.NoError(t, err)
	defer a.Close()

	log, err := NewHistoryLog(t.TempDir(), EventHistoryFile, a)
	require.NoError(t, err)

	require.NoError(t, log.Append("mirrored entry", StatusSuccess))

	got, err := a.Range(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "mirrored entry", got[0].Action)
}
