// Package metrics provides Prometheus metric collectors for the camsentry
// recording engine.
package metrics

import "time"

// Histogram bucket parameters shared by the collectors.
const (
	BucketStart1ms   = 0.001
	BucketStart100ms = 0.1
	BucketFactor2    = 2.0
	BucketCount10    = 10
)

// PercentageFactor converts a ratio to a percentage.
const PercentageFactor = 100.0

// ShutdownTimeout bounds how long the metrics endpoint waits for in-flight
// scrapes during shutdown.
const ShutdownTimeout = 5 * time.Second
