package scoring

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/provider"
)

var nopLogger = zerolog.Nop()

func TestSelect_AnchorRequired(t *testing.T) {
	engine := NewDefaultEngine()

	tests := []struct {
		name      string
		candidate provider.Candidate
		kind      media.Kind
		accepted  bool
	}{
		{
			name:      "episode with full anchor",
			candidate: episodeCandidate("1", AttrSeries, AttrYear, AttrSeason, AttrEpisode, AttrReleaseGroup, AttrSource, AttrResolution),
			kind:      media.KindEpisode,
			accepted:  true,
		},
		{
			name:      "episode missing episode number",
			candidate: episodeCandidate("2", AttrSeries, AttrYear, AttrSeason, AttrReleaseGroup, AttrSource, AttrResolution),
			kind:      media.KindEpisode,
			accepted:  false,
		},
		{
			name: "episode anchored by verified hash alone",
			candidate: provider.Candidate{
				ID:           "3",
				Matches:      provider.NewMatchSet(AttrHash),
				HashVerified: true,
			},
			kind:     media.KindEpisode,
			accepted: true,
		},
		{
			name: "movie without title match",
			candidate: provider.Candidate{
				ID:      "4",
				Matches: provider.NewMatchSet(AttrYear, AttrReleaseGroup, AttrSource, AttrResolution, AttrVideoCodec, AttrAudioCodec),
			},
			kind:     media.KindMovie,
			accepted: false,
		},
		{
			name: "movie with title match",
			candidate: provider.Candidate{
				ID:      "5",
				Matches: provider.NewMatchSet(AttrTitle, AttrYear, AttrReleaseGroup),
			},
			kind:     media.KindMovie,
			accepted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Select([]provider.Candidate{tt.candidate}, Constraints{Kind: tt.kind}, nopLogger)
			if (got != nil) != tt.accepted {
				t.Errorf("Select() accepted = %v, want %v", got != nil, tt.accepted)
			}
		})
	}
}

func TestSelect_MinimumPercent(t *testing.T) {
	engine := NewDefaultEngine()

	// Anchor only: 240/360 = 66.67%, below the 90% episode threshold.
	weak := episodeCandidate("weak", AttrSeries, AttrSeason, AttrEpisode)
	if got := engine.Select([]provider.Candidate{weak}, Constraints{Kind: media.KindEpisode}, nopLogger); got != nil {
		t.Errorf("expected rejection below minimum percent, got %+v", got)
	}

	// Anchor + year: 330/360 = 91.67%, above the threshold.
	ok := episodeCandidate("ok", AttrSeries, AttrYear, AttrSeason, AttrEpisode)
	got := engine.Select([]provider.Candidate{ok}, Constraints{Kind: media.KindEpisode}, nopLogger)
	if got == nil {
		t.Fatal("expected acceptance above minimum percent")
	}
	if got.Candidate.ID != "ok" {
		t.Errorf("winner = %s, want ok", got.Candidate.ID)
	}

	// An explicit constraint threshold overrides the engine default.
	if got := engine.Select([]provider.Candidate{weak}, Constraints{Kind: media.KindEpisode, MinimumPercent: 50}, nopLogger); got == nil {
		t.Error("expected acceptance with lowered threshold")
	}
}

func TestSelect_BestAcceptableWins(t *testing.T) {
	engine := NewDefaultEngine()

	best := episodeCandidate("best", AttrSeries, AttrYear, AttrSeason, AttrEpisode, AttrReleaseGroup, AttrSource)
	second := episodeCandidate("second", AttrSeries, AttrYear, AttrSeason, AttrEpisode)

	got := engine.Select([]provider.Candidate{second, best}, Constraints{Kind: media.KindEpisode}, nopLogger)
	if got == nil || got.Candidate.ID != "best" {
		t.Fatalf("winner = %+v, want best", got)
	}
}

// When the top-ranked candidate fails a filter, selection falls through to
// the next acceptable one instead of giving up.
func TestSelect_FallsThroughFilteredLeader(t *testing.T) {
	engine := NewDefaultEngine()

	leader := episodeCandidate("leader", AttrSeries, AttrYear, AttrSeason, AttrEpisode, AttrReleaseGroup)
	leader.Release = "Show.S01E01.1080p.CAM.x264"
	runner := episodeCandidate("runner", AttrSeries, AttrYear, AttrSeason, AttrEpisode)

	got := engine.Select([]provider.Candidate{leader, runner}, Constraints{
		Kind:           media.KindEpisode,
		MustNotContain: []string{"CAM"},
	}, nopLogger)
	if got == nil || got.Candidate.ID != "runner" {
		t.Fatalf("winner = %+v, want runner", got)
	}
}

func TestSelect_ReleaseFilters(t *testing.T) {
	engine := NewDefaultEngine()
	candidate := episodeCandidate("c", AttrSeries, AttrYear, AttrSeason, AttrEpisode)
	candidate.Release = "Show.S01E01.1080p.WEB-DL.x264-GROUP"

	tests := []struct {
		name           string
		mustContain    []string
		mustNotContain []string
		accepted       bool
	}{
		{"no filters", nil, nil, true},
		{"must-contain satisfied", []string{"WEB-DL"}, nil, true},
		{"must-contain is case-insensitive", []string{"web-dl"}, nil, true},
		{"must-contain any-of", []string{"BluRay", "WEB-DL"}, nil, true},
		{"must-contain unsatisfied", []string{"BluRay"}, nil, false},
		{"must-not-contain hit", nil, []string{"x264"}, false},
		{"must-not-contain miss", nil, []string{"CAM"}, true},
		{"must-not-contain beats must-contain", []string{"WEB-DL"}, []string{"GROUP"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Select([]provider.Candidate{candidate}, Constraints{
				Kind:           media.KindEpisode,
				MustContain:    tt.mustContain,
				MustNotContain: tt.mustNotContain,
			}, nopLogger)
			if (got != nil) != tt.accepted {
				t.Errorf("Select() accepted = %v, want %v", got != nil, tt.accepted)
			}
		})
	}
}

func TestSelect_Blacklist(t *testing.T) {
	engine := NewDefaultEngine()

	banned := episodeCandidate("banned", AttrSeries, AttrYear, AttrSeason, AttrEpisode, AttrReleaseGroup)
	clean := episodeCandidate("clean", AttrSeries, AttrYear, AttrSeason, AttrEpisode)

	got := engine.Select([]provider.Candidate{banned, clean}, Constraints{
		Kind: media.KindEpisode,
		Blacklisted: func(providerName, subtitleID string) bool {
			return subtitleID == "banned"
		},
	}, nopLogger)
	if got == nil || got.Candidate.ID != "clean" {
		t.Fatalf("winner = %+v, want clean", got)
	}
}

// Upgrade passes require strictly beating the stored score; an equal score
// is not an upgrade.
func TestSelect_ForcedMinimumScore(t *testing.T) {
	engine := NewDefaultEngine()
	candidate := episodeCandidate("c", AttrSeries, AttrYear, AttrSeason, AttrEpisode)
	score, _ := engine.Score(candidate, media.KindEpisode)

	equal := score
	if got := engine.Select([]provider.Candidate{candidate}, Constraints{Kind: media.KindEpisode, ForcedMinimumScore: &equal}, nopLogger); got != nil {
		t.Errorf("equal score must not win an upgrade, got %+v", got)
	}

	below := score - 1
	got := engine.Select([]provider.Candidate{candidate}, Constraints{Kind: media.KindEpisode, ForcedMinimumScore: &below}, nopLogger)
	if got == nil {
		t.Fatal("strictly better score must win an upgrade")
	}
}

// On an upgrade pass the stored score is the only bar; the configured
// minimum percent must not block a candidate that strictly beats it.
func TestSelect_UpgradeIgnoresMinimumPercent(t *testing.T) {
	engine := NewDefaultEngine()
	stored := 252 // 70% of the episode max

	good := episodeCandidate("good", AttrSeries, AttrYear, AttrSeason, AttrEpisode)
	got := engine.Select([]provider.Candidate{good}, Constraints{
		Kind:               media.KindEpisode,
		MinimumPercent:     100,
		ForcedMinimumScore: &stored,
	}, nopLogger)
	if got == nil {
		t.Fatal("candidate beating the stored score must win the upgrade")
	}
	if got.Score <= stored {
		t.Errorf("winner score = %d, want > %d", got.Score, stored)
	}

	weak := episodeCandidate("weak", AttrSeries, AttrSeason, AttrEpisode)
	if got := engine.Select([]provider.Candidate{weak}, Constraints{
		Kind:               media.KindEpisode,
		MinimumPercent:     100,
		ForcedMinimumScore: &stored,
	}, nopLogger); got != nil {
		t.Errorf("candidate below the stored score must not win, got %+v", got)
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	engine := NewDefaultEngine()
	if got := engine.Select(nil, Constraints{Kind: media.KindMovie}, nopLogger); got != nil {
		t.Errorf("Select(nil) = %+v, want nil", got)
	}
}
