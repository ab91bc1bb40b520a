package dimension

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected float64
		unit     Unit
	}{
		{name: "half inch", token: "1/2", expected: 12.7, unit: Inch},
		{name: "mixed number", token: "1 3/8", expected: 34.925, unit: Inch},
		{name: "decimal stays metric", token: "15.875", expected: 15.875, unit: Metric},
		{name: "letters stripped from decimal", token: "15mm", expected: 15, unit: Metric},
		{name: "letters stripped from fraction", token: "9/16in", expected: 9.0 / 16.0 * 25.4, unit: Inch},
		{name: "surrounding whitespace", token: "  3/4 ", expected: 19.05, unit: Inch},
		{name: "three tokens falls back to first", token: "1 2 3/4", expected: 25.4, unit: Inch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.token)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.token, err)
			}
			if !almostEqual(got.Millimeters, tt.expected) {
				t.Errorf("Resolve(%q) = %v, expected %v", tt.token, got.Millimeters, tt.expected)
			}
			if got.Unit != tt.unit {
				t.Errorf("Resolve(%q) unit = %s, expected %s", tt.token, got.Unit, tt.unit)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrMalformed},
		{name: "letters only", token: "mm", want: ErrMalformed},
		{name: "zero denominator", token: "1/0", want: ErrZeroDenominator},
		{name: "mixed zero denominator", token: "1 1/0", want: ErrZeroDenominator},
		{name: "non numeric fraction", token: "a/b 1/2x", want: ErrMalformed},
		{name: "decimal numerator", token: "1.5/2", want: ErrMalformed},
		{name: "double slash", token: "1/2/3", want: ErrMalformed},
		{name: "symbols", token: "#$", want: ErrMalformed},
		{name: "zero", token: "0", want: ErrNonPositive},
		{name: "negative", token: "-3", want: ErrNonPositive},
		{name: "zero fraction", token: "0/4", want: ErrNonPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve(%q) error = %v, expected %v", tt.token, err, tt.want)
			}
		})
	}
}

func TestToMetricDecimalsUnchanged(t *testing.T) {
	for _, v := range []float64{0.1, 1, 2.5, 15.875, 22, 101.6} {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		got, err := ToMetric(s)
		if err != nil {
			t.Fatalf("ToMetric(%q) returned error: %v", s, err)
		}
		if got != v {
			t.Errorf("ToMetric(%q) = %v, expected unchanged %v", s, got, v)
		}
	}
}

func TestToMetricFractions(t *testing.T) {
	for n := 1; n <= 15; n++ {
		for _, d := range []int{2, 4, 8, 16} {
			s := strconv.Itoa(n) + "/" + strconv.Itoa(d)
			got, err := ToMetric(s)
			if err != nil {
				t.Fatalf("ToMetric(%q) returned error: %v", s, err)
			}
			want := float64(n) / float64(d) * MillimetersPerInch
			if !almostEqual(got, want) {
				t.Errorf("ToMetric(%q) = %v, expected %v", s, got, want)
			}

			mixed := "2 " + s
			got, err = ToMetric(mixed)
			if err != nil {
				t.Fatalf("ToMetric(%q) returned error: %v", mixed, err)
			}
			want = (2 + float64(n)/float64(d)) * MillimetersPerInch
			if !almostEqual(got, want) {
				t.Errorf("ToMetric(%q) = %v, expected %v", mixed, got, want)
			}
		}
	}
}

func TestUnitString(t *testing.T) {
	if Metric.String() != "mm" || Inch.String() != "in" {
		t.Errorf("unexpected unit names %q %q", Metric, Inch)
	}
	if Unit(7).String() != "Unit(7)" {
		t.Errorf("unexpected unknown unit name %q", Unit(7))
	}
}
