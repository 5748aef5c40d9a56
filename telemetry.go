package agentview

import "github.com/rs/zerolog"

// TelemetryHooks expose observability callbacks without forcing dependencies
// on the host. All hooks are optional and run synchronously.
type TelemetryHooks struct {
	// OnFrame fires for every dispatched SSE frame.
	OnFrame func(frame Frame)
	// OnEvent fires for every decoded protocol event, including passthrough
	// and error kinds that never touch tool state.
	OnEvent func(event Event)
	// OnSnapshot fires with the sorted tool snapshot after every mutation.
	OnSnapshot func(tools []ToolState)
	// OnLogEntry allows callers to capture engine log events.
	OnLogEntry func(entry LogEntry)
	// OnMetric records lightweight counters for observability dashboards.
	OnMetric func(metric Metric)
}

// LogLevel encodes the severity for log hooks.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry captures structured log details for engine consumers.
type LogEntry struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// Metric represents a single observability datapoint.
type Metric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

func (t TelemetryHooks) log(level LogLevel, msg string, fields map[string]any) {
	if t.OnLogEntry == nil {
		return
	}
	t.OnLogEntry(LogEntry{Level: level, Message: msg, Fields: fields})
}

func (t TelemetryHooks) metric(name string, value float64, labels map[string]string) {
	if t.OnMetric == nil {
		return
	}
	t.OnMetric(Metric{Name: name, Value: value, Labels: labels})
}

// ZerologHooks routes engine log entries and metrics to a zerolog logger.
// Frame, event, and snapshot hooks stay unset.
func ZerologHooks(logger zerolog.Logger) TelemetryHooks {
	return TelemetryHooks{
		OnLogEntry: func(entry LogEntry) {
			ev := logger.Info()
			if entry.Level == LogLevelError {
				ev = logger.Error()
			}
			ev.Fields(entry.Fields).Msg(entry.Message)
		},
		OnMetric: func(m Metric) {
			ev := logger.Debug().Float64("value", m.Value)
			for k, v := range m.Labels {
				ev = ev.Str(k, v)
			}
			ev.Msg(m.Name)
		},
	}
}
