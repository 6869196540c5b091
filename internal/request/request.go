package request

import "cwmon/internal/metrics"

// MetricRequest is the validated, immutable description of what to collect
// and submit in one run. It is assembled from CLI flags and checked once by
// Validate before any sampling or network work starts.
type MetricRequest struct {
	MemUtil              bool
	MemUsed              bool
	MemAvail             bool
	SwapUtil             bool
	SwapUsed             bool
	MemUsedInclCacheBuff bool
	MemoryUnits          string

	DiskPaths      []string
	DiskSpaceUtil  bool
	DiskSpaceUsed  bool
	DiskSpaceAvail bool
	DiskSpaceUnits string

	Aggregated  metrics.AggregationMode
	AutoScaling metrics.AggregationMode
}

// Needs reports which sample sources a validated request requires.
type Needs struct {
	Memory bool
	Disk   bool
}

func (r *MetricRequest) wantsMemory() bool {
	return r.MemUtil || r.MemUsed || r.MemAvail || r.SwapUtil || r.SwapUsed
}

func (r *MetricRequest) wantsDiskSpace() bool {
	return r.DiskSpaceUtil || r.DiskSpaceUsed || r.DiskSpaceAvail
}
