// Package profile defines language profiles and the missing-subtitle
// resolver that compares a profile against an item's current subtitles.
package profile

import (
	"github.com/subwatch/subwatch/internal/media"
)

// Entry is one desired subtitle variant in a profile. AudioExclude marks the
// entry as satisfied by a matching audio track; when the profile's cutoff
// language is dubbed, the whole profile is considered satisfied.
type Entry struct {
	Language     string `json:"language" yaml:"language"`
	Forced       bool   `json:"forced,omitempty" yaml:"forced,omitempty"`
	HI           bool   `json:"hi,omitempty" yaml:"hi,omitempty"`
	AudioExclude bool   `json:"audioExclude,omitempty" yaml:"audio_exclude,omitempty"`
}

// Tag returns the entry's language tag.
func (e Entry) Tag() media.LanguageTag {
	return media.LanguageTag{Language: e.Language, Forced: e.Forced, HI: e.HI}
}

// Profile is an ordered list of desired subtitle variants with an optional
// cutoff and release-text filters. Profiles are immutable during a
// resolution pass; edits happen only through configuration.
type Profile struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name" yaml:"name"`
	Entries        []Entry  `json:"entries" yaml:"entries"`
	Cutoff         *Entry   `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`
	MustContain    []string `json:"mustContain,omitempty" yaml:"must_contain,omitempty"`
	MustNotContain []string `json:"mustNotContain,omitempty" yaml:"must_not_contain,omitempty"`
}

// Desired returns the language tags of all profile entries, in profile order.
func (p *Profile) Desired() []media.LanguageTag {
	tags := make([]media.LanguageTag, 0, len(p.Entries))
	for _, e := range p.Entries {
		tags = append(tags, e.Tag())
	}
	return tags
}
