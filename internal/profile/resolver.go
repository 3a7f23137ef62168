package profile

import (
	"sort"
	"strings"

	"github.com/subwatch/subwatch/internal/media"
)

// ComputeMissing returns the canonical keys of the subtitle variants the
// profile wants but the item does not have. It is a pure function: no I/O,
// no clock, and recomputing with the same inputs yields the same result.
//
// Rules, in order:
//  1. If any entry has AudioExclude set and the cutoff language is present
//     in the audio tracks, the whole profile is satisfied by the dub.
//  2. Entries whose language is already an audio language are skipped.
//  3. If the cutoff variant, or a forced/HI variant of the cutoff language,
//     is already present, nothing further is wanted.
//  4. Missing = desired − present. A plain (non-forced, non-HI) want is
//     suppressed when a forced or HI subtitle for that language exists,
//     since some coverage is already on disk.
func ComputeMissing(p *Profile, current media.SubtitleSet, audioLanguages []string) []string {
	if p == nil || len(p.Entries) == 0 {
		return nil
	}

	audio := make(map[string]bool, len(audioLanguages))
	for _, lang := range audioLanguages {
		audio[strings.ToLower(lang)] = true
	}

	for _, e := range p.Entries {
		if e.AudioExclude && p.Cutoff != nil && audio[strings.ToLower(p.Cutoff.Language)] {
			return nil
		}
	}

	var desired []media.LanguageTag
	for _, e := range p.Entries {
		if audio[strings.ToLower(e.Language)] {
			continue
		}
		desired = append(desired, e.Tag())
	}

	if p.Cutoff != nil && cutoffMet(p.Cutoff.Tag(), current) {
		return nil
	}

	missing := make([]string, 0, len(desired))
	seen := make(map[string]bool, len(desired))
	for _, want := range desired {
		if current.Contains(want) {
			continue
		}
		if !want.Forced && !want.HI && hasVariantCoverage(want.Language, current) {
			continue
		}
		key := want.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, key)
	}

	sort.Strings(missing)
	if len(missing) == 0 {
		return nil
	}
	return missing
}

// cutoffMet reports whether the cutoff tuple, or a forced/HI variant sharing
// the cutoff language, is present.
func cutoffMet(cutoff media.LanguageTag, current media.SubtitleSet) bool {
	for _, d := range current {
		if !strings.EqualFold(d.Language, cutoff.Language) {
			continue
		}
		if d.LanguageTag == cutoff || d.Forced || d.HI {
			return true
		}
	}
	return false
}

// hasVariantCoverage reports whether a forced or HI subtitle exists for lang.
func hasVariantCoverage(lang string, current media.SubtitleSet) bool {
	for _, d := range current {
		if strings.EqualFold(d.Language, lang) && (d.Forced || d.HI) {
			return true
		}
	}
	return false
}
