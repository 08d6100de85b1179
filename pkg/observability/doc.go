/*
Package observability exposes Prometheus metrics for the session store.

A nil *Metrics is valid and records nothing, so components can take one
unconditionally:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	h := handler.New(store, "app", handler.WithMetrics(m))
*/
package observability
