package driver

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/prognt/TapSwapBot/internal/driver"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
