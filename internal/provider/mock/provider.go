// Package mock provides a scriptable in-memory provider used by tests.
package mock

import (
	"context"
	"sync"

	"github.com/subwatch/subwatch/internal/provider"
)

// Provider is a scriptable provider implementation. Candidates and errors
// are set up-front; calls are recorded for assertions.
type Provider struct {
	ProviderName string

	mu          sync.Mutex
	candidates  []provider.Candidate
	searchErr   error
	fetchErr    error
	payload     []byte
	SearchCalls int
	FetchCalls  int
}

// New creates a mock provider with the given name.
func New(name string) *Provider {
	return &Provider{ProviderName: name, payload: []byte("1\n00:00:01,000 --> 00:00:02,000\nmock\n")}
}

func (p *Provider) Name() string {
	return p.ProviderName
}

// SetCandidates scripts the results of subsequent Search calls.
func (p *Provider) SetCandidates(candidates ...provider.Candidate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candidates = candidates
}

// SetSearchError scripts a Search failure.
func (p *Provider) SetSearchError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchErr = err
}

// SetFetchError scripts a Fetch failure.
func (p *Provider) SetFetchError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchErr = err
}

func (p *Provider) Search(_ context.Context, _ provider.SearchHints) ([]provider.Candidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SearchCalls++
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	out := make([]provider.Candidate, len(p.candidates))
	copy(out, p.candidates)
	return out, nil
}

func (p *Provider) Fetch(_ context.Context, _ provider.Candidate) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FetchCalls++
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.payload, nil
}
