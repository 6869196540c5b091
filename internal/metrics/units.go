package metrics

import (
	"sort"
	"strings"
)

// UnitPercent is the CloudWatch unit name used for utilization metrics.
const UnitPercent = "Percent"

// SizeUnit describes one selectable size unit: the CloudWatch unit name
// and the divisor applied to raw byte values before submission.
type SizeUnit struct {
	Name    string
	Divisor float64
}

var sizeUnits = map[string]SizeUnit{
	"bytes":     {Name: "Bytes", Divisor: 1},
	"kilobytes": {Name: "Kilobytes", Divisor: 1024},
	"megabytes": {Name: "Megabytes", Divisor: 1048576},
	"gigabytes": {Name: "Gigabytes", Divisor: 1073741824},
}

// UnitByName looks up a size unit by its lower-case keyword.
// The lookup is case-insensitive.
func UnitByName(name string) (SizeUnit, bool) {
	unit, ok := sizeUnits[strings.ToLower(name)]
	return unit, ok
}

// UnitNames returns the accepted unit keywords in sorted order,
// for use in validation problems and CLI help.
func UnitNames() []string {
	names := make([]string, 0, len(sizeUnits))
	for name := range sizeUnits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Convert divides a raw byte value by the unit's divisor.
func (u SizeUnit) Convert(bytes uint64) float64 {
	return float64(bytes) / u.Divisor
}
