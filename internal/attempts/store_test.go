package attempts_test

import (
	"context"
	"testing"
	"time"

	"github.com/subwatch/subwatch/internal/attempts"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/testutil"
)

func setup(t *testing.T) (*attempts.Store, *media.Store, int64) {
	t.Helper()
	tdb := testutil.NewTestDB(t)

	items := media.NewStore(tdb.Conn, tdb.Logger)
	item, err := items.Create(context.Background(), &media.Item{
		Kind:  media.KindMovie,
		Title: "Heat",
		Year:  1995,
		Path:  "/library/Heat.1995.mkv",
	})
	if err != nil {
		t.Fatal(err)
	}
	return attempts.NewStore(tdb.Conn, tdb.Logger), items, item.ID
}

func TestStore_GetEmptyHistory(t *testing.T) {
	store, _, itemID := setup(t)

	records, err := store.Get(context.Background(), itemID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %+v, want empty", records)
	}
}

func TestStore_RecordRoundTrip(t *testing.T) {
	store, _, itemID := setup(t)
	ctx := context.Background()

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if _, err := store.Record(ctx, itemID, "en", at); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if _, err := store.Record(ctx, itemID, "fr", at.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	records, err := store.Get(ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Key != "en" || !records[0].At.Equal(at) {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Key != "fr" {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestStore_RecordCompactsPersistedHistory(t *testing.T) {
	store, _, itemID := setup(t)
	ctx := context.Background()

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		if _, err := store.Record(ctx, itemID, "en", at.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.Get(ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("persisted %d records, want 2", len(records))
	}
	if !records[0].At.Equal(at) {
		t.Errorf("earliest = %v, want %v", records[0].At, at)
	}
	if !records[1].At.Equal(at.Add(7 * time.Hour)) {
		t.Errorf("latest = %v, want %v", records[1].At, at.Add(7*time.Hour))
	}
}

func TestStore_DeleteAndCascade(t *testing.T) {
	store, items, itemID := setup(t)
	ctx := context.Background()

	if _, err := store.Record(ctx, itemID, "en", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, itemID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	records, err := store.Get(ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records after delete = %+v", records)
	}

	// Deleting the media item cascades to its attempt history.
	if _, err := store.Record(ctx, itemID, "en", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := items.Delete(ctx, itemID); err != nil {
		t.Fatal(err)
	}
	records, err = store.Get(ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records survived item deletion: %+v", records)
	}
}
