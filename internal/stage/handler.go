package stage

import (
	"context"
	"log/slog"
)

// Stage names, in pipeline order.
const (
	Extract    = "extract"
	Transcribe = "transcribe"
	Translate  = "translate"
	Compose    = "compose"
)

// Order lists the stages in the sequence the driver runs them.
var Order = []string{Extract, Transcribe, Translate, Compose}

// Handler describes the contract the driver needs from each stage component.
type Handler interface {
	Name() string
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by components whose logger can be rerouted
// after construction (for example to attach a run correlation id).
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
