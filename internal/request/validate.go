package request

import (
	"fmt"
	"os"
	"strings"

	"cwmon/internal/metrics"
)

// ValidationError describes a bad or contradictory metrics request.
// It is never retried; the run fails before any sampling or network I/O.
type ValidationError struct {
	Problems map[string]string
}

func NewValidationError(problems map[string]string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid metrics request:")
	for field, problem := range e.Problems {
		fmt.Fprintf(&b, "\n  %s: %s", field, problem)
	}
	return b.String()
}

func (e *ValidationError) Is(other error) bool {
	_, ok := other.(*ValidationError)
	return ok
}

// Validate checks that the request is self-consistent and that every disk
// path is an accessible directory. It returns which sample sources the run
// needs. Pure check: no sampling, no network, no state.
func (r *MetricRequest) Validate() (Needs, error) {
	problems := make(map[string]string, 2)

	needs := Needs{
		Memory: r.wantsMemory(),
		Disk:   len(r.DiskPaths) > 0,
	}

	if needs.Disk {
		if !r.wantsDiskSpace() {
			problems["disk-path"] = "disk path is provided but metrics to report disk space are not specified"
		}
		for _, path := range r.DiskPaths {
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				problems["disk-path"] = fmt.Sprintf("disk file path %s does not exist or cannot be accessed", path)
				break
			}
		}
	} else if r.wantsDiskSpace() {
		problems["disk-space"] = "metrics to report disk space are provided but disk path is not specified"
	}

	if !needs.Memory && !needs.Disk {
		problems["metrics"] = "no metrics specified for collection and submission to CloudWatch"
	}

	if _, ok := metrics.UnitByName(r.MemoryUnits); !ok {
		problems["memory-units"] = unknownUnitProblem(r.MemoryUnits)
	}
	if _, ok := metrics.UnitByName(r.DiskSpaceUnits); !ok {
		problems["disk-space-units"] = unknownUnitProblem(r.DiskSpaceUnits)
	}

	if len(problems) > 0 {
		return Needs{}, NewValidationError(problems)
	}
	return needs, nil
}

func unknownUnitProblem(unit string) string {
	return fmt.Sprintf("unknown unit %q (supported units: %s)", unit, strings.Join(metrics.UnitNames(), ", "))
}
