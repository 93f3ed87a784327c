package dispatcher

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-command metrics
	commandMetrics map[string]*CommandMetrics

	// Global counters
	totalDispatches uint64
	totalInvoked    uint64
	totalDisallowed uint64
	totalNotFound   uint64
	totalErrors     uint64
	totalPanics     uint64

	// Timing
	totalDuration time.Duration
}

// CommandMetrics holds metrics for a specific command.
type CommandMetrics struct {
	Name            string
	DispatchCount   uint64
	InvokeCount     uint64
	DisallowedCount uint64
	ErrorCount      uint64
	TotalDuration   time.Duration
	MinDuration     time.Duration
	MaxDuration     time.Duration
	LastOutcome     Outcome
	LastDispatch    time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
	}
}

// RecordDispatch records a dispatch attempt. Durations only count for
// invoked handlers.
func (m *Metrics) RecordDispatch(name string, outcome Outcome, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	switch outcome {
	case NotFound:
		m.totalNotFound++
		return
	case Disallowed:
		m.totalDisallowed++
	case Invoked:
		m.totalInvoked++
		m.totalDuration += duration
	}
	if err != nil && outcome == Invoked {
		m.totalErrors++
	}

	cm := m.commandMetrics[name]
	if cm == nil {
		cm = &CommandMetrics{Name: name}
		m.commandMetrics[name] = cm
	}

	cm.DispatchCount++
	cm.LastOutcome = outcome
	cm.LastDispatch = time.Now()

	switch outcome {
	case Disallowed:
		cm.DisallowedCount++
	case Invoked:
		if cm.InvokeCount == 0 || duration < cm.MinDuration {
			cm.MinDuration = duration
		}
		if duration > cm.MaxDuration {
			cm.MaxDuration = duration
		}
		cm.InvokeCount++
		cm.TotalDuration += duration
		if err != nil {
			cm.ErrorCount++
		}
	}
}

// RecordPanic records a panic recovery.
func (m *Metrics) RecordPanic(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

// TotalDispatches returns the total number of dispatch attempts.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalErrors returns the number of handler errors, panics included.
func (m *Metrics) TotalErrors() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalErrors
}

// TotalPanics returns the total number of panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// CommandStats returns metrics for a specific command.
func (m *Metrics) CommandStats(name string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commandMetrics[name]
	if cm == nil {
		return nil
	}

	// Return a copy
	copy := *cm
	return &copy
}

// TopCommands returns the n most dispatched commands.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]*CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		copy := *cm
		commands = append(commands, &copy)
	}

	sort.Slice(commands, func(i, j int) bool {
		if commands[i].DispatchCount != commands[j].DispatchCount {
			return commands[i].DispatchCount > commands[j].DispatchCount
		}
		return commands[i].Name < commands[j].Name
	})

	if n > len(commands) {
		n = len(commands)
	}
	return commands[:n]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commandMetrics = make(map[string]*CommandMetrics)
	m.totalDispatches = 0
	m.totalInvoked = 0
	m.totalDisallowed = 0
	m.totalNotFound = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time copy of the global counters.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalInvoked    uint64
	TotalDisallowed uint64
	TotalNotFound   uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	CommandCount    int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalInvoked:    m.totalInvoked,
		TotalDisallowed: m.totalDisallowed,
		TotalNotFound:   m.totalNotFound,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalDuration:   m.totalDuration,
		CommandCount:    len(m.commandMetrics),
		Timestamp:       time.Now(),
	}

	if m.totalInvoked > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalInvoked)
	}

	return snapshot
}

// AverageDuration returns the average handler duration for the command.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.InvokeCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.InvokeCount)
}
