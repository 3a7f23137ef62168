package media

import (
	"reflect"
	"testing"
)

func TestLanguageTag_KeyRoundTrip(t *testing.T) {
	tests := []struct {
		tag LanguageTag
		key string
	}{
		{LanguageTag{Language: "en"}, "en"},
		{LanguageTag{Language: "en", Forced: true}, "en:forced"},
		{LanguageTag{Language: "en", HI: true}, "en:hi"},
		{LanguageTag{Language: "pt-BR"}, "pt-BR"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tt.tag.Key(); got != tt.key {
				t.Errorf("Key() = %q, want %q", got, tt.key)
			}
			parsed, err := ParseTag(tt.key)
			if err != nil {
				t.Fatalf("ParseTag(%q) error: %v", tt.key, err)
			}
			if parsed != tt.tag {
				t.Errorf("ParseTag(%q) = %+v, want %+v", tt.key, parsed, tt.tag)
			}
		})
	}
}

func TestParseTag_Invalid(t *testing.T) {
	for _, key := range []string{"", ":forced", "en:bogus", "en:"} {
		if _, err := ParseTag(key); err == nil {
			t.Errorf("ParseTag(%q) expected error", key)
		}
	}
}

func TestSubtitleSet_DistinctVariants(t *testing.T) {
	set := SubtitleSet{
		{LanguageTag: LanguageTag{Language: "en"}, Path: "/v.en.srt"},
		{LanguageTag: LanguageTag{Language: "en", Forced: true}, Path: "/v.en.forced.srt"},
	}

	if !set.Contains(LanguageTag{Language: "en"}) {
		t.Error("plain en should be present")
	}
	if !set.Contains(LanguageTag{Language: "en", Forced: true}) {
		t.Error("forced en should be present")
	}
	if set.Contains(LanguageTag{Language: "en", HI: true}) {
		t.Error("hi en should not be present")
	}
}

func TestSubtitleSet_UpsertReplacesSameTag(t *testing.T) {
	set := SubtitleSet{
		{LanguageTag: LanguageTag{Language: "en"}, Path: "/old.srt"},
	}

	updated := set.Upsert(SubtitleDescriptor{LanguageTag: LanguageTag{Language: "en"}, Path: "/new.srt"})
	if len(updated) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(updated))
	}
	if updated[0].Path != "/new.srt" {
		t.Errorf("path = %s, want /new.srt", updated[0].Path)
	}

	// The original set is unchanged.
	if set[0].Path != "/old.srt" {
		t.Errorf("original set was mutated: %s", set[0].Path)
	}

	// A different variant appends.
	updated = updated.Upsert(SubtitleDescriptor{LanguageTag: LanguageTag{Language: "en", HI: true}, Path: "/hi.srt"})
	if len(updated) != 2 {
		t.Errorf("expected 2 descriptors, got %d", len(updated))
	}
}

func TestSubtitleSet_Remove(t *testing.T) {
	set := SubtitleSet{
		{LanguageTag: LanguageTag{Language: "en"}},
		{LanguageTag: LanguageTag{Language: "fr"}},
	}

	got := set.Remove(LanguageTag{Language: "en"})
	if len(got) != 1 || got[0].Language != "fr" {
		t.Errorf("Remove() = %+v, want only fr", got)
	}

	// Removing an absent tag is a no-op.
	got = set.Remove(LanguageTag{Language: "de"})
	if len(got) != 2 {
		t.Errorf("Remove(absent) changed the set: %+v", got)
	}
}

func TestSubtitleSet_Keys(t *testing.T) {
	set := SubtitleSet{
		{LanguageTag: LanguageTag{Language: "fr"}},
		{LanguageTag: LanguageTag{Language: "en", Forced: true}},
		{LanguageTag: LanguageTag{Language: "en"}},
	}

	got := set.Keys()
	want := []string{"en", "en:forced", "fr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestSubtitleDescriptor_Embedded(t *testing.T) {
	if !(SubtitleDescriptor{LanguageTag: LanguageTag{Language: "en"}}).Embedded() {
		t.Error("descriptor without path should be embedded")
	}
	if (SubtitleDescriptor{LanguageTag: LanguageTag{Language: "en"}, Path: "/v.en.srt"}).Embedded() {
		t.Error("descriptor with path should not be embedded")
	}
}

func TestItem_DisplayTitle(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{
			name: "episode",
			item: Item{Kind: KindEpisode, SeriesTitle: "The Wire", SeasonNumber: 2, EpisodeNumber: 3},
			want: "The Wire S02E03",
		},
		{
			name: "movie with year",
			item: Item{Kind: KindMovie, Title: "Heat", Year: 1995},
			want: "Heat (1995)",
		},
		{
			name: "movie without year",
			item: Item{Kind: KindMovie, Title: "Heat"},
			want: "Heat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.DisplayTitle(); got != tt.want {
				t.Errorf("DisplayTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
