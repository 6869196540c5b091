package metrics

import (
	"fmt"
	"strings"
)

// AggregationMode controls which fleet-rollup data points are emitted in
// addition to, or instead of, the per-instance point.
type AggregationMode string

const (
	AggregationNone       AggregationMode = "none"
	AggregationAdditional AggregationMode = "additional"
	AggregationOnly       AggregationMode = "only"
)

// ParseAggregationMode parses a mode keyword, case-insensitively.
// The empty string means none.
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch AggregationMode(strings.ToLower(s)) {
	case "", AggregationNone:
		return AggregationNone, nil
	case AggregationAdditional:
		return AggregationAdditional, nil
	case AggregationOnly:
		return AggregationOnly, nil
	}
	return AggregationNone, fmt.Errorf("unknown aggregation mode %q (expected additional or only)", s)
}

// selector names the identifying dimension a data point is scoped by.
// The aggregate selector carries no identifying dimension at all: it is the
// fleet-wide rollup series.
type selector int

const (
	selectInstanceID selector = iota
	selectAutoScalingGroup
	selectInstanceType
	selectImageID
	selectAggregate
)

// selectors returns the ordered list of identifying dimensions to emit for
// the given aggregation mode. CloudWatch aggregates by exact dimension set,
// so every selected combination is a distinct, deliberate submission of the
// same sample — never deduplicated.
func selectors(mode AggregationMode, hasGroup bool) []selector {
	var sel []selector
	if mode != AggregationOnly {
		sel = append(sel, selectInstanceID)
	}
	if hasGroup {
		sel = append(sel, selectAutoScalingGroup)
	}
	if mode == AggregationAdditional || mode == AggregationOnly {
		sel = append(sel, selectInstanceType, selectImageID, selectAggregate)
	}
	return sel
}

// Expander turns one raw measurement into the set of dimensioned data
// points to submit, based on the instance identity and aggregation mode.
type Expander struct {
	InstanceID       string
	InstanceType     string
	ImageID          string
	AutoScalingGroup string
	Aggregated       AggregationMode
}

// Expand produces one point per applicable dimension combination. Each
// point carries the common dimensions (mount path, filesystem) followed by
// its identifying dimension. Output order is deterministic: instance,
// auto-scaling group, instance type, image, aggregate.
func (e *Expander) Expand(name, unit string, value float64, common ...Dimension) []Point {
	sel := selectors(e.Aggregated, e.AutoScalingGroup != "")
	points := make([]Point, 0, len(sel))
	for _, s := range sel {
		dims := make(DimensionSet, 0, len(common)+1)
		dims = append(dims, common...)
		switch s {
		case selectInstanceID:
			dims = append(dims, Dimension{Name: "InstanceId", Value: e.InstanceID})
		case selectAutoScalingGroup:
			dims = append(dims, Dimension{Name: "AutoScalingGroupName", Value: e.AutoScalingGroup})
		case selectInstanceType:
			dims = append(dims, Dimension{Name: "InstanceType", Value: e.InstanceType})
		case selectImageID:
			dims = append(dims, Dimension{Name: "ImageId", Value: e.ImageID})
		case selectAggregate:
			// fleet-wide rollup: common dimensions only
		}
		points = append(points, Point{Name: name, Unit: unit, Value: value, Dimensions: dims})
	}
	return points
}
