package roster

import (
	"context"
	"testing"
	"time"

	"lsfassist-backend/lib/testutil"
	"lsfassist-backend/lib/timezone"
	"lsfassist-backend/services/roster/db"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "roster",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() { res.DB.Close() })
	return NewService(res.DB)
}

func TestPushPull(t *testing.T) {
	service := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		res, err := service.History(ctx, "unknown-user")
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, res, 0)
	}

	now := timezone.Now()
	err := service.Push(ctx, PushRequest{
		User:    "mmuster",
		Time:    now,
		Classes: []string{"Algorithmen 12345", "Grundlagen der Informatik 54321"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = service.Push(ctx, PushRequest{
		User:    "other",
		Time:    now,
		Classes: []string{"Analysis I 11111"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := service.History(ctx, "mmuster")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, res, 1)
	require.Equal(t,
		[]string{"Algorithmen 12345", "Grundlagen der Informatik 54321"},
		res[0].Classes,
	)
}

func TestPushReplacesSameDay(t *testing.T) {
	service := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	// fixed midday timestamp so the same-day window is unambiguous
	now := time.Date(2026, time.May, 11, 12, 0, 0, 0, timezone.Location)
	err := service.Push(ctx, PushRequest{
		User:    "mmuster",
		Time:    now,
		Classes: []string{"Algorithmen 12345"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = service.Push(ctx, PushRequest{
		User:    "mmuster",
		Time:    now.Add(time.Minute),
		Classes: []string{"Algorithmen 12345", "Analysis I 11111"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// a run on a different day is kept alongside
	err = service.Push(ctx, PushRequest{
		User:    "mmuster",
		Time:    now.Add(time.Hour * 24),
		Classes: []string{"Analysis I 11111"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := service.History(ctx, "mmuster")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, res, 2)
	require.Equal(t, []string{"Algorithmen 12345", "Analysis I 11111"}, res[0].Classes)
	require.Equal(t, []string{"Analysis I 11111"}, res[1].Classes)
}

func TestDiffLatest(t *testing.T) {
	service := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	now := time.Date(2026, time.May, 11, 12, 0, 0, 0, timezone.Location)

	_, ok, err := service.DiffLatest(ctx, "mmuster")
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)

	err = service.Push(ctx, PushRequest{
		User: "mmuster",
		Time: now,
		Classes: []string{
			"Algorithmen und Datenstrukturen 12345",
			"Grundlagen der Informatik 54321",
			"Analysis I 11111",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = service.Push(ctx, PushRequest{
		User: "mmuster",
		Time: now.Add(time.Hour * 24),
		Classes: []string{
			// small spelling change, should register as a rename
			"Algorithmen und Datenstrukturen I 12345",
			"Grundlagen der Informatik 54321",
			"Rechnernetze 22222",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	diff, ok, err := service.DiffLatest(ctx, "mmuster")
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)

	require.Equal(t, []string{"Rechnernetze 22222"}, diff.Added)
	require.Equal(t, []string{"Analysis I 11111"}, diff.Removed)
	require.Len(t, diff.Renamed, 1)
	require.Equal(t, "Algorithmen und Datenstrukturen 12345", diff.Renamed[0].From)
	require.Equal(t, "Algorithmen und Datenstrukturen I 12345", diff.Renamed[0].To)
	require.Greater(t, diff.Renamed[0].Similarity, renameSimilarity)
}

func TestDiffClassesNoRenameBelowThreshold(t *testing.T) {
	diff := diffClasses(
		[]string{"Algorithmen 12345"},
		[]string{"Rechnernetze 22222"},
	)
	require.Empty(t, diff.Renamed)
	require.Equal(t, []string{"Rechnernetze 22222"}, diff.Added)
	require.Equal(t, []string{"Algorithmen 12345"}, diff.Removed)
}
