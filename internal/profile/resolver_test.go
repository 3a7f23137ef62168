package profile

import (
	"reflect"
	"testing"

	"github.com/subwatch/subwatch/internal/media"
)

func entry(lang string, forced, hi bool) Entry {
	return Entry{Language: lang, Forced: forced, HI: hi}
}

func sub(lang string, forced, hi bool) media.SubtitleDescriptor {
	return media.SubtitleDescriptor{
		LanguageTag: media.LanguageTag{Language: lang, Forced: forced, HI: hi},
		Path:        "/library/video." + lang + ".srt",
	}
}

func TestComputeMissing(t *testing.T) {
	enCutoff := entry("en", false, false)

	tests := []struct {
		name    string
		profile *Profile
		current media.SubtitleSet
		audio   []string
		want    []string
	}{
		{
			name:    "nil profile wants nothing",
			profile: nil,
			want:    nil,
		},
		{
			name:    "empty profile wants nothing",
			profile: &Profile{Name: "empty"},
			current: media.SubtitleSet{sub("en", false, false)},
			want:    nil,
		},
		{
			name: "everything missing",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("fr", false, false)},
			},
			want: []string{"en", "fr"},
		},
		{
			name: "present subtitles are subtracted",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("fr", false, false)},
			},
			current: media.SubtitleSet{sub("en", false, false)},
			want:    []string{"fr"},
		},
		{
			name: "forced and plain are distinct wants",
			profile: &Profile{
				Entries: []Entry{entry("en", true, false), entry("fr", false, false)},
			},
			current: media.SubtitleSet{sub("en", false, false)},
			want:    []string{"en:forced", "fr"},
		},
		{
			name: "audio language entries are skipped",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("fr", false, false)},
			},
			audio: []string{"en"},
			want:  []string{"fr"},
		},
		{
			name: "audio language match is case-insensitive",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false)},
			},
			audio: []string{"EN"},
			want:  nil,
		},
		{
			name: "audio-exclude entry with cutoff dub satisfies whole profile",
			profile: &Profile{
				Entries: []Entry{
					{Language: "en", AudioExclude: true},
					entry("fr", false, false),
				},
				Cutoff: &enCutoff,
			},
			audio: []string{"en"},
			want:  nil,
		},
		{
			name: "cutoff met suppresses remaining wants",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("fr", false, false)},
				Cutoff:  &enCutoff,
			},
			current: media.SubtitleSet{sub("en", false, false)},
			want:    nil,
		},
		{
			name: "HI variant of cutoff language meets cutoff",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("fr", false, false)},
				Cutoff:  &enCutoff,
			},
			current: media.SubtitleSet{sub("en", false, true)},
			want:    nil,
		},
		{
			name: "forced subtitle suppresses the plain want for its language",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false)},
			},
			current: media.SubtitleSet{sub("en", true, false)},
			want:    nil,
		},
		{
			name: "forced coverage does not satisfy other languages",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("fr", false, false)},
			},
			current: media.SubtitleSet{sub("en", true, false)},
			want:    []string{"fr"},
		},
		{
			name: "plain subtitle does not satisfy a forced want",
			profile: &Profile{
				Entries: []Entry{entry("pt", true, false)},
			},
			current: media.SubtitleSet{sub("pt", false, false)},
			want:    []string{"pt:forced"},
		},
		{
			name: "duplicate entries produce one key",
			profile: &Profile{
				Entries: []Entry{entry("en", false, false), entry("en", false, false)},
			},
			want: []string{"en"},
		},
		{
			name: "output is sorted",
			profile: &Profile{
				Entries: []Entry{entry("fr", false, false), entry("de", false, false), entry("en", true, false)},
			},
			want: []string{"de", "en:forced", "fr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMissing(tt.profile, tt.current, tt.audio)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeMissing() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Recomputing with identical inputs must yield identical results, and a
// satisfied want must stay satisfied after recomputation.
func TestComputeMissing_Idempotent(t *testing.T) {
	p := &Profile{
		Entries: []Entry{entry("en", false, false), entry("fr", false, false), entry("en", true, false)},
	}
	current := media.SubtitleSet{sub("fr", false, false)}

	first := ComputeMissing(p, current, nil)
	second := ComputeMissing(p, current, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputation diverged: %v vs %v", first, second)
	}

	// Satisfy one want and recompute: the rest is unchanged.
	current = current.Upsert(sub("en", false, false))
	got := ComputeMissing(p, current, nil)
	want := []string{"en:forced"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComputeMissing() after download = %v, want %v", got, want)
	}
}

func TestDefaultProfiles(t *testing.T) {
	profiles, err := DefaultProfiles()
	if err != nil {
		t.Fatalf("DefaultProfiles() error: %v", err)
	}
	if len(profiles) == 0 {
		t.Fatal("expected at least one built-in profile")
	}
	for _, p := range profiles {
		if p.Name == "" {
			t.Error("built-in profile with empty name")
		}
		if len(p.Entries) == 0 {
			t.Errorf("built-in profile %q has no entries", p.Name)
		}
	}
}
