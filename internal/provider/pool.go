package provider

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is a provider's throttle status.
type Status string

const (
	StatusOK        Status = "ok"
	StatusThrottled Status = "throttled"
)

// BackoffConfig defines the throttle windows applied per failure kind.
// Rate-limit and transient failures escalate through their period lists;
// auth failures get a single long window because they need operator action.
type BackoffConfig struct {
	AuthBackoff      time.Duration
	RateLimitPeriods []time.Duration
	TransientPeriods []time.Duration
}

// DefaultBackoffConfig returns the default throttle windows.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		AuthBackoff: 24 * time.Hour,
		RateLimitPeriods: []time.Duration{
			10 * time.Minute,
			30 * time.Minute,
			1 * time.Hour,
			3 * time.Hour,
			6 * time.Hour,
		},
		TransientPeriods: []time.Duration{
			1 * time.Minute,
			5 * time.Minute,
			15 * time.Minute,
		},
	}
}

// backoffFor returns the throttle window for a failure kind at the given
// escalation level (1-based). Not-found never throttles.
func (c BackoffConfig) backoffFor(kind FailureKind, level int) time.Duration {
	switch kind {
	case FailureAuth:
		return c.AuthBackoff
	case FailureRateLimit:
		return periodAt(c.RateLimitPeriods, level)
	case FailureTransient:
		return periodAt(c.TransientPeriods, level)
	default:
		return 0
	}
}

func periodAt(periods []time.Duration, level int) time.Duration {
	if len(periods) == 0 || level <= 0 {
		return 0
	}
	if level > len(periods) {
		return periods[len(periods)-1]
	}
	return periods[level-1]
}

// State is the throttle state of one provider.
type State struct {
	Name            string     `json:"name"`
	Status          Status     `json:"status"`
	RetryAfter      *time.Time `json:"retryAfter,omitempty"`
	EscalationLevel int        `json:"escalationLevel"`
	LastFailure     *time.Time `json:"lastFailure,omitempty"`
	LastFailureKind string     `json:"lastFailureKind,omitempty"`
}

type poolEntry struct {
	config Config
	state  State
}

// Pool tracks the configured providers and their throttle state. All
// mutation funnels through ReportFailure, ReportSuccess, Update and
// ResetAll so the state can stay consistent under one mutex.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
	backoff BackoffConfig
	logger  zerolog.Logger
}

// NewPool creates a pool from the initial provider configuration.
func NewPool(configs []Config, backoff BackoffConfig, logger zerolog.Logger) *Pool {
	p := &Pool{
		entries: make(map[string]*poolEntry, len(configs)),
		backoff: backoff,
		logger:  logger.With().Str("component", "provider-pool").Logger(),
	}
	for _, cfg := range configs {
		p.entries[cfg.Name] = &poolEntry{
			config: cfg,
			state:  State{Name: cfg.Name, Status: StatusOK},
		}
	}
	return p
}

// Eligible returns the names of providers that are configured for use and
// not currently throttled, sorted for deterministic iteration. An elapsed
// throttle flips the provider back to ok as a side effect.
func (p *Pool) Eligible(now time.Time) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var names []string
	for name, e := range p.entries {
		if !e.config.Configured() {
			continue
		}
		if e.state.Status == StatusThrottled {
			if e.state.RetryAfter != nil && now.Before(*e.state.RetryAfter) {
				continue
			}
			e.state.Status = StatusOK
			e.state.RetryAfter = nil
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReportFailure throttles a provider according to the failure kind.
// Not-found failures are normal search outcomes and never throttle.
func (p *Pool) ReportFailure(name string, kind FailureKind, now time.Time) {
	if kind == FailureNotFound {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[name]
	if !ok {
		return
	}

	e.state.EscalationLevel++
	window := p.backoff.backoffFor(kind, e.state.EscalationLevel)
	retryAfter := now.Add(window)

	e.state.Status = StatusThrottled
	e.state.RetryAfter = &retryAfter
	e.state.LastFailure = &now
	e.state.LastFailureKind = string(kind)

	p.logger.Warn().
		Str("provider", name).
		Str("kind", string(kind)).
		Int("escalationLevel", e.state.EscalationLevel).
		Dur("backoff", window).
		Time("retryAfter", retryAfter).
		Msg("Provider throttled")
}

// ReportSuccess clears any throttle and resets escalation for a provider.
func (p *Pool) ReportSuccess(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[name]
	if !ok {
		return
	}
	if e.state.Status == StatusThrottled || e.state.EscalationLevel > 0 {
		p.logger.Debug().Str("provider", name).Msg("Provider recovered")
	}
	e.state = State{Name: name, Status: StatusOK}
}

// ResetAll clears every throttle immediately. This is the user-facing
// escape hatch, not part of normal operation.
func (p *Pool) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, e := range p.entries {
		e.state = State{Name: name, Status: StatusOK}
	}
	p.logger.Info().Msg("Cleared all provider throttles")
}

// Update applies a new provider configuration as a merge: providers that
// remain configured keep their throttle state, removed providers are
// dropped, and new providers start clean.
func (p *Pool) Update(configs []Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := make(map[string]*poolEntry, len(configs))
	for _, cfg := range configs {
		if existing, ok := p.entries[cfg.Name]; ok {
			existing.config = cfg
			next[cfg.Name] = existing
		} else {
			next[cfg.Name] = &poolEntry{
				config: cfg,
				state:  State{Name: cfg.Name, Status: StatusOK},
			}
		}
	}

	for name := range p.entries {
		if _, ok := next[name]; !ok {
			p.logger.Info().Str("provider", name).Msg("Provider removed from pool")
		}
	}

	p.entries = next
}

// States returns a snapshot of all provider states, sorted by name.
func (p *Pool) States() []State {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make([]State, 0, len(p.entries))
	for _, e := range p.entries {
		states = append(states, e.state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}
