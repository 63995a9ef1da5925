package service

import (
	"context"
	"sync/atomic"
	"time"

	"pump_screener/internal/models"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  atomic.Bool
	lastError    atomic.Value // string
	lastTickUnix atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.lastError.Store("")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) LastError() string { return s.lastError.Load().(string) }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// State подписан на движок только ради статуса соединения.

func (s *State) OnSignal(context.Context, models.SignalEvent)            {}
func (s *State) OnAlert(context.Context, string, string)                 {}
func (s *State) OnCoverageTick(context.Context, models.CoverageSnapshot) {}
func (s *State) OnConnectionStatus(_ context.Context, st models.ConnectionStatus) {
	ok := st.Status == models.ConnectionOK
	s.SetWSConnected(ok)
	if ok {
		s.SetReady(true)
		s.lastError.Store("")
		return
	}
	s.lastError.Store(st.Msg)
}
