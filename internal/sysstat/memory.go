// Package sysstat reads the local memory, swap, and disk usage figures the
// run was asked to report. Readings are snapshots in bytes; all derived
// math (available, used, utilization) lives on the snapshot types so it is
// testable without touching the host.
package sysstat

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// CollectionError means a local sample source could not be read. Fatal for
// the run.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("cannot collect %s statistics: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// MemSnapshot is one reading of memory and swap totals, in bytes.
// UsedInclCacheBuff controls whether cached and buffered memory counts as
// used or as available.
type MemSnapshot struct {
	Total   uint64
	Free    uint64
	Cached  uint64
	Buffers uint64

	SwapTotal uint64
	SwapFree  uint64

	UsedInclCacheBuff bool
}

// ReadMemory takes a memory and swap snapshot from the host.
func ReadMemory(ctx context.Context, usedInclCacheBuff bool) (MemSnapshot, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemSnapshot{}, &CollectionError{Source: "memory", Err: err}
	}
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return MemSnapshot{}, &CollectionError{Source: "swap", Err: err}
	}
	return MemSnapshot{
		Total:             vm.Total,
		Free:              vm.Free,
		Cached:            vm.Cached,
		Buffers:           vm.Buffers,
		SwapTotal:         sw.Total,
		SwapFree:          sw.Free,
		UsedInclCacheBuff: usedInclCacheBuff,
	}, nil
}

// Avail returns available memory: free memory, plus cache and buffers
// unless those are counted as used.
func (m MemSnapshot) Avail() uint64 {
	avail := m.Free
	if !m.UsedInclCacheBuff {
		avail += m.Cached + m.Buffers
	}
	return avail
}

// Used returns total minus available memory.
func (m MemSnapshot) Used() uint64 {
	return m.Total - m.Avail()
}

// Util returns memory utilization as a percentage of total.
func (m MemSnapshot) Util() float64 {
	if m.Total == 0 {
		return 0
	}
	return 100.0 * float64(m.Used()) / float64(m.Total)
}

// SwapUsed returns allocated swap in bytes.
func (m MemSnapshot) SwapUsed() uint64 {
	return m.SwapTotal - m.SwapFree
}

// SwapUtil returns swap utilization as a percentage, 0 when no swap is
// configured.
func (m MemSnapshot) SwapUtil() float64 {
	if m.SwapTotal == 0 {
		return 0
	}
	return 100.0 * float64(m.SwapUsed()) / float64(m.SwapTotal)
}
