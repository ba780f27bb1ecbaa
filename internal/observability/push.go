package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends the run's metrics to a Prometheus Pushgateway. A batch job
// exits before any scrape, so this replaces the /metrics endpoint.
func Push(ctx context.Context, gatewayURL, job string, m *Metrics) error {
	p := push.New(gatewayURL, job)
	for _, c := range m.Collectors() {
		p = p.Collector(c)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
