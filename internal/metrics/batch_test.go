package metrics

import (
	"strings"
	"testing"
)

func TestBatchString(t *testing.T) {
	batch := &Batch{}
	batch.Add(
		Point{Name: "MemoryUtilization", Unit: UnitPercent, Value: 78.75,
			Dimensions: DimensionSet{{Name: "InstanceId", Value: "i-12345678"}}},
		Point{Name: "DiskSpaceUsed", Unit: "Gigabytes", Value: 12.5,
			Dimensions: DimensionSet{
				{Name: "MountPath", Value: "/"},
				{Name: "Filesystem", Value: "/dev/xvda1"},
				{Name: "InstanceId", Value: "i-12345678"},
			}},
	)

	got := batch.String()
	want := "MemoryUtilization: 78.75 Percent ({InstanceId: i-12345678})\n" +
		"DiskSpaceUsed: 12.5 Gigabytes ({MountPath: /, Filesystem: /dev/xvda1, InstanceId: i-12345678})\n"
	if got != want {
		t.Errorf("expected rendering:\n%s\ngot:\n%s", want, got)
	}

	lines := strings.Count(got, "\n")
	if lines != batch.Len() {
		t.Errorf("expected %d lines, got %d", batch.Len(), lines)
	}
}

func TestDimensionSetEqual(t *testing.T) {
	base := DimensionSet{{Name: "InstanceId", Value: "i-1"}, {Name: "MountPath", Value: "/"}}

	tests := []struct {
		name  string
		other DimensionSet
		want  bool
	}{
		{name: "identical", other: DimensionSet{{Name: "InstanceId", Value: "i-1"}, {Name: "MountPath", Value: "/"}}, want: true},
		{name: "different value", other: DimensionSet{{Name: "InstanceId", Value: "i-2"}, {Name: "MountPath", Value: "/"}}, want: false},
		{name: "different order", other: DimensionSet{{Name: "MountPath", Value: "/"}, {Name: "InstanceId", Value: "i-1"}}, want: false},
		{name: "shorter", other: DimensionSet{{Name: "InstanceId", Value: "i-1"}}, want: false},
		{name: "nil set", other: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("expected Equal=%v, got %v", tt.want, got)
			}
		})
	}

	if !(DimensionSet{}).Equal(DimensionSet{}) {
		t.Error("expected two empty sets to be equal")
	}
}

func TestUnitByName(t *testing.T) {
	tests := []struct {
		input       string
		wantName    string
		wantDivisor float64
		wantOK      bool
	}{
		{input: "bytes", wantName: "Bytes", wantDivisor: 1, wantOK: true},
		{input: "kilobytes", wantName: "Kilobytes", wantDivisor: 1024, wantOK: true},
		{input: "megabytes", wantName: "Megabytes", wantDivisor: 1048576, wantOK: true},
		{input: "gigabytes", wantName: "Gigabytes", wantDivisor: 1073741824, wantOK: true},
		{input: "Megabytes", wantName: "Megabytes", wantDivisor: 1048576, wantOK: true},
		{input: "terabytes", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run("unit "+tt.input, func(t *testing.T) {
			unit, ok := UnitByName(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if unit.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, unit.Name)
			}
			if unit.Divisor != tt.wantDivisor {
				t.Errorf("expected divisor %v, got %v", tt.wantDivisor, unit.Divisor)
			}
		})
	}
}

func TestSizeUnitConvert(t *testing.T) {
	unit, _ := UnitByName("megabytes")
	// binary divisor table, not decimal megabytes
	if got := unit.Convert(6_300_000_000); got != 6300000000.0/1048576.0 {
		t.Errorf("expected %v, got %v", 6300000000.0/1048576.0, got)
	}
}
