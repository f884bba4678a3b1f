package session

import (
	"fmt"
	"sync"

	"github.com/delegatefabric/fabric/core"
)

const defaultWarningThreshold = 0.8

// pressure fraction cutoffs: < elevatedAt is Normal, < warningThreshold is
// Elevated, < emergencyAt is Critical, else Emergency. warningThreshold is
// the Monitor's configurable Elevated/Critical boundary (default 0.8);
// the other two cutoffs are fixed.
const (
	elevatedAt  = 0.60
	emergencyAt = 0.90
)

// Monitor tracks cumulative token usage against a context window and
// classifies pressure as it grows. Safe for concurrent use.
type Monitor struct {
	mu               sync.Mutex
	contextLimit     int
	warningThreshold float64
	usedTokens       int
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

func WithWarningThreshold(threshold float64) MonitorOption {
	return func(m *Monitor) { m.warningThreshold = threshold }
}

func NewMonitor(contextLimit int, opts ...MonitorOption) *Monitor {
	m := &Monitor{contextLimit: contextLimit, warningThreshold: defaultWarningThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Track records text entering the context, estimating its token cost as
// len(text)/4, and returns the resulting pressure classification.
func (m *Monitor) Track(text string) Pressure {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usedTokens += len(text) / 4
	pressure := m.pressureLocked()

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Gauge("session.monitor.pressure", pressureLevel(pressure))
	}
	return pressure
}

// pressureLevel encodes Pressure as an ordinal for gauge emission:
// 0=normal, 1=elevated, 2=critical, 3=emergency.
func pressureLevel(p Pressure) float64 {
	switch p {
	case PressureElevated:
		return 1
	case PressureCritical:
		return 2
	case PressureEmergency:
		return 3
	default:
		return 0
	}
}

// Usage returns the current (usedTokens, contextLimit) pair.
func (m *Monitor) Usage() (used, limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usedTokens, m.contextLimit
}

func (m *Monitor) fraction() float64 {
	if m.contextLimit <= 0 {
		return 0
	}
	return float64(m.usedTokens) / float64(m.contextLimit)
}

func (m *Monitor) pressureLocked() Pressure {
	f := m.fraction()
	switch {
	case f >= emergencyAt:
		return PressureEmergency
	case f >= m.warningThreshold:
		return PressureCritical
	case f >= elevatedAt:
		return PressureElevated
	default:
		return PressureNormal
	}
}

// ShouldPrepareRecovery reports whether usage has crossed into Critical or
// worse, at which point a recovery manifest should be prepared proactively.
func (m *Monitor) ShouldPrepareRecovery() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fraction() >= m.warningThreshold
}

// ShouldForceRecovery reports whether usage has crossed into Emergency,
// at which point recovery must happen before continuing.
func (m *Monitor) ShouldForceRecovery() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fraction() >= emergencyAt
}

// StatusReport renders a one-line human-readable summary of current usage.
func (m *Monitor) StatusReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("session usage: %d/%d tokens (%.0f%%), pressure=%s",
		m.usedTokens, m.contextLimit, m.fraction()*100, m.pressureLocked())
}
