package manager

import (
	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for upload manager configuration.
type Opt func(*opts) error

type opts struct {
	tracer     trace.Tracer
	meter      metric.Meter
	logger     uploader.Logger
	transferer uploader.Transferer
	parallel   int64
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithTracer sets the tracer used for tracing operations.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithMeter sets the meter used to count samples, transfers and bytes.
func WithMeter(meter metric.Meter) Opt {
	return func(o *opts) error {
		o.meter = meter
		return nil
	}
}

// WithLogger sets the logger for submission progress and failures.
func WithLogger(logger uploader.Logger) Opt {
	return func(o *opts) error {
		o.logger = logger
		return nil
	}
}

// WithTransferer replaces the engine which moves file content to upload
// targets.
func WithTransferer(transferer uploader.Transferer) Opt {
	return func(o *opts) error {
		o.transferer = transferer
		return nil
	}
}

// WithParallel limits the number of transfers in flight across all
// submissions. Zero means no limit.
func WithParallel(n int) Opt {
	return func(o *opts) error {
		if n < 0 {
			return uploader.ErrValidation.Withf("parallel transfers must not be negative, got %d", n)
		}
		o.parallel = int64(n)
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults
	o := opts{}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
