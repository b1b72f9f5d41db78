package observability

import (
	"context"
	"errors"
)

// Config is the subset of application settings needed to export telemetry.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	SampleRate     float64
}

// Setup installs both the tracer and meter providers and returns a function
// that flushes and shuts both down.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	tp, err := InitTracer(ctx, &TracerConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	meterCfg := DefaultMeterConfig(cfg.ServiceName)
	meterCfg.ServiceVersion = cfg.ServiceVersion
	meterCfg.Environment = cfg.Environment
	meterCfg.Endpoint = cfg.Endpoint
	meterCfg.Insecure = cfg.Insecure
	mp, err := InitMeter(ctx, &meterCfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
