package manager

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	attribute "go.opentelemetry.io/otel/attribute"
	metric "go.opentelemetry.io/otel/metric"
	noop "go.opentelemetry.io/otel/metric/noop"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type metrics struct {
	samples   metric.Int64Counter
	transfers metric.Int64Counter
	bytes     metric.Int64Counter
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	metricSamples   = schema.SchemaName + ".samples"
	metricTransfers = schema.SchemaName + ".transfers"
	metricBytes     = schema.SchemaName + ".transfer.bytes"
	attrOutcome     = "outcome"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(schema.SchemaName)
	}
	m := new(metrics)
	if counter, err := meter.Int64Counter(metricSamples, metric.WithDescription("Samples settled, by outcome")); err != nil {
		return nil, err
	} else {
		m.samples = counter
	}
	if counter, err := meter.Int64Counter(metricTransfers, metric.WithDescription("Transfers settled, by outcome")); err != nil {
		return nil, err
	} else {
		m.transfers = counter
	}
	if counter, err := meter.Int64Counter(metricBytes, metric.WithDescription("Bytes read from sources during transfers"), metric.WithUnit("By")); err != nil {
		return nil, err
	} else {
		m.bytes = counter
	}
	return m, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m *metrics) sample(ctx context.Context, success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	m.samples.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

func (m *metrics) transfer(ctx context.Context, result schema.TransferResult) {
	m.transfers.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, result.Outcome.String())))
	if result.Bytes > 0 {
		m.bytes.Add(ctx, result.Bytes)
	}
}
