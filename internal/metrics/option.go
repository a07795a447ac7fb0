package metrics

// Config holds meter provider settings.
type Config struct {
	ServiceName  string
	OTLPEndpoint string
	OTLPInsecure bool
}

// OptionFn configures the meter provider.
type OptionFn func(config Config) Config

// WithServiceName tags all exported metrics with the service name.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// WithOTLPEndpoint enables the OTLP gRPC reader alongside Prometheus.
func WithOTLPEndpoint(endpoint string, insecure bool) OptionFn {
	return func(config Config) Config {
		config.OTLPEndpoint = endpoint
		config.OTLPInsecure = insecure
		return config
	}
}
