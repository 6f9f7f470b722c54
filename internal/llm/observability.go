package llm

import (
	"log/slog"
)

// CallEvent records metadata about a single AI provider invocation.
type CallEvent struct {
	Provider     string
	Model        string
	LatencyMs    int64
	Attempts     int
	Success      bool
	ErrorCode    string
	InputTokens  int
	OutputTokens int
}

// Observer receives events about AI calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	attrs := []any{
		"provider", event.Provider,
		"model", event.Model,
		"latency_ms", event.LatencyMs,
		"attempts", event.Attempts,
	}
	if !event.Success {
		o.logger.Warn("ai_call", append(attrs, "status", "error", "error_code", event.ErrorCode)...)
		return
	}
	o.logger.Info("ai_call", append(attrs,
		"status", "ok",
		"input_tokens", event.InputTokens,
		"output_tokens", event.OutputTokens,
	)...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
