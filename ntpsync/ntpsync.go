// Package ntpsync keeps the host clock in step with a list of NTP servers.
// It is driven from the clock's main loop and never runs on its own.
package ntpsync

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/ntp"
)

const (
	DefaultSyncInterval  = time.Hour
	DefaultRetryInterval = 60 * time.Second
	DefaultQueryTimeout  = 5 * time.Second
)

var ErrNoServers = errors.New("ntpsync: no time servers configured")

// Querier returns the current time according to host.
type Querier func(host string) (time.Time, error)

// Setter steps the host clock.
type Setter func(time.Time) error

// Service is the time-sync state: which servers to ask, whether syncing is
// enabled and when it last happened.
type Service struct {
	servers       []string
	enabled       bool
	syncInterval  time.Duration
	retryInterval time.Duration
	query         Querier
	set           Setter
	logger        *slog.Logger

	lastAttempt time.Time
	lastSync    time.Time
	lastServer  string
}

type Option func(*Service)

func WithQuerier(q Querier) Option {
	return func(s *Service) { s.query = q }
}

func WithIntervals(sync, retry time.Duration) Option {
	return func(s *Service) {
		if sync > 0 {
			s.syncInterval = sync
		}
		if retry > 0 {
			s.retryInterval = retry
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(set Setter, opts ...Option) *Service {
	s := &Service{
		syncInterval:  DefaultSyncInterval,
		retryInterval: DefaultRetryInterval,
		query:         Query,
		set:           set,
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Query asks one server, validating the answer.
func Query(host string) (time.Time, error) {
	resp, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: DefaultQueryTimeout})
	if err != nil {
		return time.Time{}, err
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(resp.ClockOffset), nil
}

// Configure replaces the server list and forces a sync on the next Poll.
// Empty server names are dropped.
func (s *Service) Configure(servers []string) {
	s.servers = s.servers[:0]
	for _, h := range servers {
		if h != "" {
			s.servers = append(s.servers, h)
		}
	}
	s.Restart()
}

func (s *Service) Enabled() bool {
	return s.enabled
}

func (s *Service) SetEnabled(on bool) {
	if on != s.enabled {
		s.enabled = on
		s.logger.Info("Time sync switched", "enabled", on)
		if on {
			s.Restart()
		}
	}
}

// Restart forgets the last sync so the next Poll asks the servers again.
func (s *Service) Restart() {
	s.lastAttempt = time.Time{}
	s.lastSync = time.Time{}
}

func (s *Service) LastSync() (time.Time, string) {
	return s.lastSync, s.lastServer
}

func (s *Service) due(now time.Time) bool {
	if !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.retryInterval && now.After(s.lastAttempt) {
		return false
	}
	return s.lastSync.IsZero() || now.Sub(s.lastSync) >= s.syncInterval || now.Before(s.lastSync)
}

// Poll syncs the clock when enabled and due. It reports whether the clock
// was stepped.
func (s *Service) Poll(now time.Time) (bool, error) {
	// wall clock only, so a settimeofday step shows up in the comparisons
	now = now.Round(0)
	if !s.enabled || !s.due(now) {
		return false, nil
	}
	s.lastAttempt = now
	if len(s.servers) == 0 {
		return false, ErrNoServers
	}

	var errs []error
	for _, host := range s.servers {
		t, err := s.query(host)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			continue
		}
		if err := s.set(t); err != nil {
			return false, fmt.Errorf("set clock from %s: %w", host, err)
		}
		t = t.Round(0)
		s.lastSync = t
		s.lastAttempt = t
		s.lastServer = host
		s.logger.Info("Clock synchronized", "server", host, "offset", t.Sub(now).Round(time.Millisecond))
		return true, nil
	}
	return false, errors.Join(errs...)
}
