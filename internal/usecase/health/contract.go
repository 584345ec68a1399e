package health

import "context"

// Pinger is the vector store availability probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker is the availability probe both LLM provider clients expose.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
