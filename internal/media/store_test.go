package media_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/testutil"
)

func newStore(t *testing.T) *media.Store {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return media.NewStore(tdb.Conn, tdb.Logger)
}

func sampleEpisode(profileID *int64) *media.Item {
	return &media.Item{
		Kind:           media.KindEpisode,
		Title:          "Pilot",
		SeriesTitle:    "The Expanse",
		Year:           2015,
		SeasonNumber:   1,
		EpisodeNumber:  1,
		Path:           "/library/The.Expanse.S01E01.mkv",
		Monitored:      true,
		ProfileID:      profileID,
		AudioLanguages: []string{"en"},
		ReleaseName:    "The.Expanse.S01E01.1080p.WEB-DL",
		Subtitles: media.SubtitleSet{
			{LanguageTag: media.LanguageTag{Language: "en", Forced: true}, Path: "/library/The.Expanse.S01E01.en.forced.srt"},
			{LanguageTag: media.LanguageTag{Language: "de"}},
		},
		Missing: []string{"en", "fr"},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	profileID := int64(7)
	created, err := store.Create(ctx, sampleEpisode(&profileID))
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

	want := sampleEpisode(&profileID)
	want.ID = created.ID
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	// The embedded subtitle round-trips without a path.
	if d, ok := got.Subtitles.Find(media.LanguageTag{Language: "de"}); !ok || !d.Embedded() {
		t.Errorf("embedded subtitle lost: %+v, present %v", d, ok)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), 12345)
	if !errors.Is(err, media.ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestStore_UpdateSubtitles(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	profileID := int64(1)
	item, err := store.Create(ctx, sampleEpisode(&profileID))
	if err != nil {
		t.Fatal(err)
	}

	subs := item.Subtitles.Upsert(media.SubtitleDescriptor{
		LanguageTag: media.LanguageTag{Language: "en"},
		Path:        "/library/The.Expanse.S01E01.en.srt",
	})
	if err := store.UpdateSubtitles(ctx, item.ID, subs, []string{"fr"}); err != nil {
		t.Fatalf("UpdateSubtitles() error: %v", err)
	}

	got, err := store.Get(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Subtitles.Contains(media.LanguageTag{Language: "en"}) {
		t.Error("en subtitle not stored")
	}
	if !reflect.DeepEqual(got.Missing, []string{"fr"}) {
		t.Errorf("missing = %v, want [fr]", got.Missing)
	}

	if err := store.UpdateSubtitles(ctx, 9999, subs, nil); !errors.Is(err, media.ErrItemNotFound) {
		t.Errorf("update of absent item: err = %v, want ErrItemNotFound", err)
	}
}

func TestStore_ListMonitoredAndWanted(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	profileID := int64(1)

	monitored, err := store.Create(ctx, sampleEpisode(&profileID))
	if err != nil {
		t.Fatal(err)
	}

	unmonitored := sampleEpisode(&profileID)
	unmonitored.Monitored = false
	unmonitored.Path = "/library/other.mkv"
	if _, err := store.Create(ctx, unmonitored); err != nil {
		t.Fatal(err)
	}

	noProfile := sampleEpisode(nil)
	noProfile.Path = "/library/third.mkv"
	if _, err := store.Create(ctx, noProfile); err != nil {
		t.Fatal(err)
	}

	satisfied := sampleEpisode(&profileID)
	satisfied.Path = "/library/fourth.mkv"
	satisfied.Missing = nil
	if _, err := store.Create(ctx, satisfied); err != nil {
		t.Fatal(err)
	}

	movie := sampleEpisode(&profileID)
	movie.Kind = media.KindMovie
	movie.Path = "/library/fifth.mkv"
	if _, err := store.Create(ctx, movie); err != nil {
		t.Fatal(err)
	}

	// Monitored episodes with a profile: the first and the satisfied one.
	got, err := store.ListMonitored(ctx, media.KindEpisode)
	if err != nil {
		t.Fatalf("ListMonitored() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListMonitored() returned %d items, want 2", len(got))
	}

	// Wanted additionally requires a non-empty missing set.
	wanted, err := store.ListWanted(ctx, media.KindEpisode)
	if err != nil {
		t.Fatalf("ListWanted() error: %v", err)
	}
	if len(wanted) != 1 || wanted[0].ID != monitored.ID {
		t.Errorf("ListWanted() = %+v, want only item %d", wanted, monitored.ID)
	}
}

func TestStore_Delete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	profileID := int64(1)
	item, err := store.Create(ctx, sampleEpisode(&profileID))
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Get(ctx, item.ID); !errors.Is(err, media.ErrItemNotFound) {
		t.Errorf("err after delete = %v, want ErrItemNotFound", err)
	}
}
