package fetch

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

const breakerThreshold = 5 // consecutive failures before a host trips

// BreakerSet maintains one circuit breaker per upstream host so a dead
// registry stops consuming retries quickly while other hosts stay usable.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// NewBreakerSet returns an empty breaker set.
func NewBreakerSet() *BreakerSet {
	return &BreakerSet{breakers: make(map[string]*circuit.Breaker)}
}

// Do runs fn under the breaker for rawURL's host. When the breaker is open
// it fails immediately with ErrUpstreamDown. Only errors fn reports trip the
// breaker; callers should treat not-found as success and handle it outside.
func (s *BreakerSet) Do(rawURL string, fn func() error) error {
	host := breakerHost(rawURL)
	br := s.breaker(host)

	if !br.Ready() {
		return fmt.Errorf("circuit open for %s: %w", host, ErrUpstreamDown)
	}
	return br.Call(fn, 0)
}

func (s *BreakerSet) breaker(host string) *circuit.Breaker {
	s.mu.RLock()
	br, ok := s.breakers[host]
	s.mu.RUnlock()
	if ok {
		return br
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if br, ok := s.breakers[host]; ok {
		return br
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 30 * time.Second
	bo.MaxInterval = 5 * time.Minute
	bo.Reset()

	br = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    bo,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
	s.breakers[host] = br
	return br
}

// States reports each known host's breaker state, for diagnostics.
func (s *BreakerSet) States() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[string]string, len(s.breakers))
	for host, br := range s.breakers {
		if br.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func breakerHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
