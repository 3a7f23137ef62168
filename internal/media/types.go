// Package media defines the library item and subtitle types shared by the
// subtitle acquisition pipeline.
package media

import (
	"fmt"
	"sort"
	"strings"
)

// Kind represents the type of media item.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// LanguageTag identifies a subtitle variant: a language code plus the
// forced and hearing-impaired flags. Forced and HI are mutually exclusive
// in practice; Key formatting gives forced precedence if both are set.
type LanguageTag struct {
	Language string `json:"language"`
	Forced   bool   `json:"forced,omitempty"`
	HI       bool   `json:"hi,omitempty"`
}

// Key returns the canonical string form: "en", "en:forced" or "en:hi".
func (t LanguageTag) Key() string {
	switch {
	case t.Forced:
		return t.Language + ":forced"
	case t.HI:
		return t.Language + ":hi"
	default:
		return t.Language
	}
}

func (t LanguageTag) String() string {
	return t.Key()
}

// ParseTag parses a canonical language key back into a LanguageTag.
func ParseTag(key string) (LanguageTag, error) {
	lang, variant, found := strings.Cut(key, ":")
	if lang == "" {
		return LanguageTag{}, fmt.Errorf("invalid language key %q", key)
	}
	tag := LanguageTag{Language: lang}
	if !found {
		return tag, nil
	}
	switch variant {
	case "forced":
		tag.Forced = true
	case "hi":
		tag.HI = true
	default:
		return LanguageTag{}, fmt.Errorf("invalid language key %q", key)
	}
	return tag, nil
}

// SubtitleDescriptor describes one subtitle known for an item. Path is empty
// for subtitles embedded in the media container.
type SubtitleDescriptor struct {
	LanguageTag
	Path string `json:"path,omitempty"`
}

// Embedded reports whether the subtitle lives inside the media container.
func (d SubtitleDescriptor) Embedded() bool {
	return d.Path == ""
}

// SubtitleSet is a set of subtitles, unique by (language, forced, hi).
// Provenance (embedded vs. external) is irrelevant to set membership.
type SubtitleSet []SubtitleDescriptor

// Contains reports whether the set holds a subtitle with the exact tag.
func (s SubtitleSet) Contains(tag LanguageTag) bool {
	for _, d := range s {
		if d.LanguageTag == tag {
			return true
		}
	}
	return false
}

// Find returns the descriptor for the given tag, if present.
func (s SubtitleSet) Find(tag LanguageTag) (SubtitleDescriptor, bool) {
	for _, d := range s {
		if d.LanguageTag == tag {
			return d, true
		}
	}
	return SubtitleDescriptor{}, false
}

// Upsert replaces any descriptor with the same tag, or appends.
func (s SubtitleSet) Upsert(d SubtitleDescriptor) SubtitleSet {
	for i, existing := range s {
		if existing.LanguageTag == d.LanguageTag {
			out := make(SubtitleSet, len(s))
			copy(out, s)
			out[i] = d
			return out
		}
	}
	out := make(SubtitleSet, len(s), len(s)+1)
	copy(out, s)
	return append(out, d)
}

// Remove returns the set without the descriptor for the given tag.
func (s SubtitleSet) Remove(tag LanguageTag) SubtitleSet {
	out := make(SubtitleSet, 0, len(s))
	for _, d := range s {
		if d.LanguageTag != tag {
			out = append(out, d)
		}
	}
	return out
}

// Keys returns the sorted canonical keys of the set.
func (s SubtitleSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, d := range s {
		keys = append(keys, d.Key())
	}
	sort.Strings(keys)
	return keys
}

// Item is a media library item as seen by the subtitle pipeline. Identity,
// path, monitored flag, audio languages and profile assignment are owned by
// the metadata sync subsystem; only the subtitle-related fields are written
// back by this codebase.
type Item struct {
	ID             int64        `json:"id"`
	Kind           Kind         `json:"kind"`
	Title          string       `json:"title"`
	Year           int          `json:"year,omitempty"`
	SeriesTitle    string       `json:"seriesTitle,omitempty"`
	SeasonNumber   int          `json:"seasonNumber,omitempty"`
	EpisodeNumber  int          `json:"episodeNumber,omitempty"`
	Path           string       `json:"path"`
	Monitored      bool         `json:"monitored"`
	ProfileID      *int64       `json:"profileId,omitempty"`
	AudioLanguages []string     `json:"audioLanguages,omitempty"`
	ReleaseName    string       `json:"releaseName,omitempty"`
	Subtitles      SubtitleSet  `json:"subtitles,omitempty"`
	Missing        []string     `json:"missing,omitempty"`
}

// DisplayTitle returns a human-readable identifier for logging.
func (i *Item) DisplayTitle() string {
	if i.Kind == KindEpisode && i.SeriesTitle != "" {
		return fmt.Sprintf("%s S%02dE%02d", i.SeriesTitle, i.SeasonNumber, i.EpisodeNumber)
	}
	if i.Year > 0 {
		return fmt.Sprintf("%s (%d)", i.Title, i.Year)
	}
	return i.Title
}

// HasAudioLanguage reports whether the item's audio tracks include lang.
func (i *Item) HasAudioLanguage(lang string) bool {
	for _, l := range i.AudioLanguages {
		if strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}
