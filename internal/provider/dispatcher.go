package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/pkg/logger"
	"github.com/wanderai/travel-gateway/pkg/metrics"
)

// Dispatcher tries providers in priority order until one succeeds. Each
// provider is invoked at most once per dispatch under its own timeout; there
// are no retries and no parallel attempts.
type Dispatcher struct {
	clients []Client
	timeout time.Duration
	logger  *logger.Logger
}

// NewDispatcher creates a dispatcher over the given clients. Order is the
// failover priority: the first client is the primary.
func NewDispatcher(clients []Client, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		clients: clients,
		timeout: timeout,
		logger:  log,
	}
}

// Providers returns the configured provider names in priority order.
func (d *Dispatcher) Providers() []string {
	names := make([]string, len(d.clients))
	for i, c := range d.clients {
		names[i] = c.Name()
	}
	return names
}

// Dispatch invokes providers in order and returns the first successful reply,
// recording which provider answered. If every provider fails the returned
// error is an *ExhaustedError carrying the per-provider failure reasons.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Reply, error) {
	start := time.Now()
	attempts := make([]Attempt, 0, len(d.clients))

	for _, client := range d.clients {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		callStart := time.Now()
		text, err := client.Generate(callCtx, req)
		cancel()

		if err != nil {
			metrics.RecordProviderAttempt(client.Name(), "failure")
			d.logger.Warn("provider failed, trying next",
				zap.String("provider", client.Name()),
				zap.Duration("elapsed", time.Since(callStart)),
				zap.Error(err),
			)
			attempts = append(attempts, Attempt{Provider: client.Name(), Err: err})
			continue
		}

		metrics.RecordProviderAttempt(client.Name(), "success")
		metrics.RecordDispatch(client.Name(), "success", time.Since(start).Seconds())

		return &Reply{
			Text:      text,
			Provider:  client.Name(),
			LatencyMs: time.Since(callStart).Milliseconds(),
		}, nil
	}

	metrics.RecordDispatch("none", "exhausted", time.Since(start).Seconds())

	return nil, &ExhaustedError{Attempts: attempts}
}
