package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// DefaultPingTimeout bounds each oracle ping during a health check.
const DefaultPingTimeout = 5 * time.Second

// Pinger is anything that can report reachability. Every oracle port
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
	ModelName() string
}

// HealthTarget is one oracle checked by the health service.
type HealthTarget struct {
	Name     string
	Oracle   Pinger
	Required bool
}

// HealthService pings the configured oracles and reports session state.
type HealthService struct {
	targets []HealthTarget
	docs    driving.DocumentService
	timeout time.Duration
}

// NewHealthService creates a health service. Targets with a nil oracle are
// skipped; docs may be nil.
func NewHealthService(docs driving.DocumentService, timeout time.Duration, targets ...HealthTarget) *HealthService {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	live := make([]HealthTarget, 0, len(targets))
	for _, t := range targets {
		if t.Oracle != nil {
			live = append(live, t)
		}
	}
	return &HealthService{targets: live, docs: docs, timeout: timeout}
}

// Check pings every target concurrently. The report is ready when every
// required oracle answered.
func (h *HealthService) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{
		Ready:   true,
		Oracles: make([]domain.OracleHealth, len(h.targets)),
	}

	var wg sync.WaitGroup
	for i, t := range h.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			oh := domain.OracleHealth{Name: t.Name, Model: t.Oracle.ModelName(), Required: t.Required, OK: true}
			if err := t.Oracle.Ping(pingCtx); err != nil {
				oh.OK = false
				oh.Error = domain.NewRequestError(domain.NewOracleError(t.Name, err)).Message
			}
			report.Oracles[i] = oh
		}()
	}
	wg.Wait()

	for _, oh := range report.Oracles {
		if oh.Required && !oh.OK {
			report.Ready = false
		}
	}
	if h.docs != nil {
		report.Session = h.docs.Current()
	}
	return report
}
