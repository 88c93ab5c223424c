package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfTokenDecode is perf metric
	PerfTokenDecode = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_token_decode",
		Help:         "perf_token_decode provides the sample metrics of token decode operations",
		RequiredTags: []string{"alg", "result"},
	}

	// PerfTokenSign is perf metric
	PerfTokenSign = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_token_sign",
		Help:         "perf_token_sign provides the sample metrics of token signing",
		RequiredTags: []string{"alg"},
	}

	// PerfJWKSFetch is perf metric
	PerfJWKSFetch = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_jwks_fetch",
		Help:         "perf_jwks_fetch provides the sample metrics of remote key set fetch",
		RequiredTags: []string{"status"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfTokenDecode,
	&PerfTokenSign,
	&PerfJWKSFetch,
}
