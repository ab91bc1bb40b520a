// Package dimension converts human-entered size tokens into millimetres.
//
// Bare decimals ("15.875", "15mm") are taken as metric and returned as-is.
// Fractions ("1/2") and mixed numbers ("1 3/8") are taken as inches and
// converted with MillimetersPerInch.
package dimension

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MillimetersPerInch is the exact inch definition.
const MillimetersPerInch = 25.4

var (
	// ErrMalformed is returned when a token is not a number, fraction or mixed number.
	ErrMalformed = errors.New("malformed dimension")
	// ErrZeroDenominator is returned for fractions such as "1/0".
	ErrZeroDenominator = errors.New("zero denominator")
	// ErrNonPositive is returned when a token resolves to zero or less.
	ErrNonPositive = errors.New("dimension must be positive")
)

var letters = regexp.MustCompile(`[A-Za-z]`)

// Unit records which convention a token was resolved under.
type Unit int

const (
	Metric Unit = iota
	Inch
)

func (u Unit) String() string {
	switch u {
	case Metric:
		return "mm"
	case Inch:
		return "in"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Length is a resolved dimension token.
type Length struct {
	Millimeters float64
	Unit        Unit
}

// ToMetric resolves token and returns only the millimetre value.
func ToMetric(token string) (float64, error) {
	l, err := Resolve(token)
	if err != nil {
		return 0, err
	}
	return l.Millimeters, nil
}

// Resolve parses a size token. Letters are stripped first, so "15mm" and
// "1/2in" are accepted.
func Resolve(token string) (Length, error) {
	text := strings.TrimSpace(letters.ReplaceAllString(token, ""))
	if text == "" {
		return Length{}, fmt.Errorf("%w: %q is empty", ErrMalformed, token)
	}

	var l Length
	if !strings.Contains(text, "/") {
		mm, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Length{}, fmt.Errorf("%w: %q", ErrMalformed, token)
		}
		l = Length{Millimeters: mm, Unit: Metric}
	} else {
		inches, err := parseInches(strings.Fields(text))
		if err != nil {
			return Length{}, fmt.Errorf("failed to resolve %q: %w", token, err)
		}
		l = Length{Millimeters: inches * MillimetersPerInch, Unit: Inch}
	}

	if l.Millimeters <= 0 {
		return Length{}, fmt.Errorf("%w: %q resolved to %g mm", ErrNonPositive, token, l.Millimeters)
	}
	return l, nil
}

func parseInches(parts []string) (float64, error) {
	switch {
	case len(parts) == 2:
		whole, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("%w: whole part %q", ErrMalformed, parts[0])
		}
		frac, err := parseFraction(parts[1])
		if err != nil {
			return 0, err
		}
		return float64(whole) + frac, nil
	case len(parts) == 1:
		return parseFraction(parts[0])
	default:
		// Anything else: best effort on the first token.
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, parts[0])
		}
		return v, nil
	}
}

func parseFraction(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(den, "/") {
		return 0, fmt.Errorf("%w: fraction %q", ErrMalformed, s)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("%w: numerator %q", ErrMalformed, num)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return 0, fmt.Errorf("%w: denominator %q", ErrMalformed, den)
	}
	if d == 0 {
		return 0, fmt.Errorf("%w in %q", ErrZeroDenominator, s)
	}
	return float64(n) / float64(d), nil
}
