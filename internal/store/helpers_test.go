package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"clinreg/internal/platform/logger"
	"clinreg/internal/platform/metrics"
)

// testDeps returns a quiet logger and an isolated metrics registry for store
// construction in tests.
func testDeps(t *testing.T) (*slog.Logger, *metrics.Metrics) {
	t.Helper()
	return logger.NewWithWriter(io.Discard, "text", "error"), metrics.New(prometheus.NewRegistry())
}
