package out_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	scanout "vscan/internal/modules/scan/adapter/out"
	"vscan/internal/modules/scan/domain"
)

func TestSQLiteHistoryAppendAndRecent(t *testing.T) {
	t.Parallel()
	history, err := scanout.NewSQLiteHistory(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err = history.Append(ctx, []domain.HistoryEntry{
		{SessionID: "s1", Signature: "aa", Format: domain.FormatQRCode, Text: "first", SeenAt: base},
		{SessionID: "s1", Signature: "bb", Format: domain.FormatEAN13, Text: "4006381333931", SeenAt: base.Add(time.Second)},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same symbol again later in the session moves it to the top.
	if err := history.Append(ctx, []domain.HistoryEntry{{SessionID: "s1", Signature: "aa", Format: domain.FormatQRCode, Text: "first", SeenAt: base.Add(2 * time.Second)}}); err != nil {
		t.Fatalf("append again: %v", err)
	}

	recent, err := history.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows, got %+v", recent)
	}
	if recent[0].Signature != "aa" || !recent[0].SeenAt.Equal(base.Add(2*time.Second)) {
		t.Fatalf("expected bumped row first, got %+v", recent[0])
	}
	if recent[1].Format != domain.FormatEAN13 || recent[1].Text != "4006381333931" {
		t.Fatalf("unexpected second row: %+v", recent[1])
	}

	limited, err := history.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected one row, got %d", len(limited))
	}
}

func TestSQLiteHistoryAppendEmptyIsNoop(t *testing.T) {
	t.Parallel()
	history, err := scanout.NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()
	if err := history.Append(context.Background(), nil); err != nil {
		t.Fatalf("append nil: %v", err)
	}
	recent, err := history.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no rows, got %+v", recent)
	}
}
