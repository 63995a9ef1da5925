package tracing

import (
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"pump_screener/pkg/logger"
)

type Config struct {
	ServiceName string
	Host        string
	Port        int
	// SampleRate в (0,1) включает вероятностный сэмплер, иначе пишем всё.
	SampleRate float64
}

func samplerFor(rate float64) *jCfg.SamplerConfig {
	if rate > 0 && rate < 1 {
		return &jCfg.SamplerConfig{Type: jaeger.SamplerTypeProbabilistic, Param: rate}
	}
	return &jCfg.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}
}

// InitTracer ставит jaeger глобальным трейсером opentracing.
func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	name := conf.ServiceName
	if name == "" {
		name = "pump_screener"
	}
	cfg := &jCfg.Configuration{
		ServiceName: name,
		Sampler:     samplerFor(conf.SampleRate),
		Reporter: &jCfg.ReporterConfig{
			// спан на каждый батч, в лог их не пишем
			LogSpans:           false,
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	tracer, closer, err := cfg.NewTracer(
		jCfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init jaeger tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, func() {
		if err := closer.Close(); err != nil {
			logger.Error("Error closing Jaeger tracer: %v", err)
		}
	}, nil
}
