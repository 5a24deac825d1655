package logging

import (
	"context"
	"log/slog"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// CapturingHandler wraps an slog.Handler to capture log records while passing them through.
type CapturingHandler struct {
	underlying slog.Handler  // Pass-through to actual handler
	collector  *LogCollector // Stores captured logs
	runKey     scenario.Key  // Auto-tagged on all logs
	attrs      []slog.Attr   // Attributes added via WithAttrs
	groups     []string      // Groups added via WithGroup
}

// NewCapturingHandler creates a new CapturingHandler that captures logs to the collector
// while passing them through to the underlying handler.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, runKey scenario.Key) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		runKey:     runKey,
	}
}

// Enabled always returns true to capture all log levels regardless of the underlying handler's level.
// This ensures we capture DEBUG, INFO, WARN, and ERROR logs even if the base logger filters some levels.
// The underlying handler will still filter for output in Handle().
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle captures the log record and then passes it to the underlying handler.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]interface{}, r.NumAttrs()+len(h.attrs)),
	}

	// Attributes from WithAttrs calls come first, then the per-call ones.
	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = resolveValue(a.Value)
		return true
	})

	h.collector.AddLog(h.runKey, entry)

	return h.underlying.Handle(ctx, r)
}

// WithAttrs returns a new CapturingHandler with additional attributes.
// CRITICAL: Must return a new CapturingHandler (not the underlying handler)
// to preserve log capturing through .With() chains.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Accumulate attributes from parent handler
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &CapturingHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		runKey:     h.runKey,
		attrs:      newAttrs,
		groups:     h.groups,
	}
}

// WithGroup returns a new CapturingHandler with a group name.
// CRITICAL: Must return a new CapturingHandler (not the underlying handler)
// to preserve log capturing through .With() chains.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	// Accumulate groups from parent handler
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &CapturingHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		runKey:     h.runKey,
		attrs:      h.attrs,
		groups:     newGroups,
	}
}

// resolveValue converts a slog.Value to a JSON-serializable value.
// This handles special cases like errors which need to be converted to strings.
func resolveValue(v slog.Value) interface{} {
	// Resolve any LogValuer implementations
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindAny:
		any := v.Any()
		if err, ok := any.(error); ok {
			return err.Error()
		}
		return any
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		return v.Any()
	}
}
