package tracing

import (
	"io"

	"github.com/pkg/errors"
	jaeger "github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// DefaultSampleRate is the share of requests traced when JAEGER_SAMPLER_TYPE
// is not set. Login and registration traffic is small.
const DefaultSampleRate = 0.1

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init registers Jaeger as the OpenTracing implementation for serviceName.
// Without an agent or sampling server in the environment it does nothing.
func Init(serviceName string) (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, errors.Wrap(err, "loading jaeger configuration")
	}
	if cfg.Sampler.SamplingServerURL == "" && cfg.Reporter.LocalAgentHostPort == "" {
		return nopCloser{}, nil
	}
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = jaeger.SamplerTypeProbabilistic
		cfg.Sampler.Param = DefaultSampleRate
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}

	closer, err := cfg.InitGlobalTracer(cfg.ServiceName)
	if err != nil {
		return nil, errors.Wrapf(err, "initializing jaeger tracer for %s", cfg.ServiceName)
	}
	return closer, nil
}
