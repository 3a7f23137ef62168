package profile_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/subwatch/subwatch/internal/profile"
	"github.com/subwatch/subwatch/internal/testutil"
)

func newStore(t *testing.T) *profile.Store {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return profile.NewStore(tdb.Conn, tdb.Logger)
}

func sampleProfile() *profile.Profile {
	return &profile.Profile{
		Name: "English first",
		Entries: []profile.Entry{
			{Language: "en"},
			{Language: "en", Forced: true},
			{Language: "fr", HI: true},
		},
		Cutoff:         &profile.Entry{Language: "en"},
		MustContain:    []string{"WEB-DL"},
		MustNotContain: []string{"CAM"},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleProfile())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("no ID assigned")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	want := sampleProfile()
	want.ID = created.ID
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), 99)
	if !errors.Is(err, profile.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestStore_Update(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, sampleProfile())
	if err != nil {
		t.Fatal(err)
	}

	p.Name = "Renamed"
	p.Cutoff = nil
	p.Entries = []profile.Entry{{Language: "de"}}
	if err := store.Update(ctx, p); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %s", got.Name)
	}
	if got.Cutoff != nil {
		t.Errorf("cutoff = %+v, want nil", got.Cutoff)
	}
	if len(got.Entries) != 1 || got.Entries[0].Language != "de" {
		t.Errorf("entries = %+v", got.Entries)
	}

	missing := sampleProfile()
	missing.ID = 9999
	if err := store.Update(ctx, missing); !errors.Is(err, profile.ErrProfileNotFound) {
		t.Errorf("update of absent profile: err = %v, want ErrProfileNotFound", err)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, sampleProfile())
	if err != nil {
		t.Fatal(err)
	}
	second := sampleProfile()
	second.Name = "Second"
	if _, err := store.Create(ctx, second); err != nil {
		t.Fatal(err)
	}

	profiles, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("List() returned %d profiles, want 2", len(profiles))
	}

	if err := store.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	profiles, err = store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0].Name != "Second" {
		t.Errorf("List() after delete = %+v", profiles)
	}
}

func TestStore_SeedDefaults(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults() error: %v", err)
	}

	seeded, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeded) == 0 {
		t.Fatal("no profiles seeded into empty table")
	}

	// Seeding again is a no-op.
	if err := store.SeedDefaults(ctx); err != nil {
		t.Fatal(err)
	}
	again, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(seeded) {
		t.Errorf("second seed changed profile count: %d -> %d", len(seeded), len(again))
	}
}
