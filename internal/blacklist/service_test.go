package blacklist_test

import (
	"context"
	"testing"

	"github.com/subwatch/subwatch/internal/blacklist"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/testutil"
)

func newService(t *testing.T) *blacklist.Service {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return blacklist.NewService(tdb.Conn, tdb.Logger)
}

var enTag = media.LanguageTag{Language: "en"}

func TestService_AddIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Add(ctx, 1, "sub1", "s-9", enTag); err != nil {
			t.Fatalf("Add() error: %v", err)
		}
	}

	entries, err := svc.ListForItem(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestService_MatcherScopedToItem(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if err := svc.Add(ctx, 1, "sub1", "s-9", enTag); err != nil {
		t.Fatal(err)
	}
	if err := svc.Add(ctx, 2, "sub1", "s-10", enTag); err != nil {
		t.Fatal(err)
	}

	matcher, err := svc.Matcher(ctx, 1)
	if err != nil {
		t.Fatalf("Matcher() error: %v", err)
	}

	if !matcher("sub1", "s-9") {
		t.Error("banned candidate not matched")
	}
	if matcher("sub1", "s-10") {
		t.Error("other item's ban leaked into this item")
	}
	if matcher("sub2", "s-9") {
		t.Error("ban matched across providers")
	}
}

func TestService_Remove(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if err := svc.Add(ctx, 1, "sub1", "s-9", enTag); err != nil {
		t.Fatal(err)
	}
	entries, err := svc.ListForItem(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(ctx, entries[0].ID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	entries, err = svc.ListForItem(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("entries after remove = %+v", entries)
	}
}
