package grading

import (
	"errors"
	"fmt"
	"strings"
)

// MaxTotalMarks caps both the weightage sum and a student's total marks.
const MaxTotalMarks = 100

var (
	// ErrInvalidScheme is returned when a weightage scheme breaks its invariants.
	ErrInvalidScheme = errors.New("invalid weightage scheme")
	// ErrInvalidMarks is returned when entered marks do not fit the scheme.
	ErrInvalidMarks = errors.New("invalid marks")
)

// Component is one weighted part of a course assessment.
type Component struct {
	Name     string  `json:"name"`
	MaxMarks float64 `json:"max_marks"`
}

// Scheme is the ordered set of components configured for a course.
type Scheme []Component

// Validate checks positive maxima, unique names and a sum of at most 100.
func (s Scheme) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: at least one component required", ErrInvalidScheme)
	}
	seen := make(map[string]struct{}, len(s))
	total := 0.0
	for _, comp := range s {
		key := normalize(comp.Name)
		if key == "" {
			return fmt.Errorf("%w: component name required", ErrInvalidScheme)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate component %q", ErrInvalidScheme, comp.Name)
		}
		seen[key] = struct{}{}
		if comp.MaxMarks <= 0 {
			return fmt.Errorf("%w: component %q must have a positive maximum", ErrInvalidScheme, comp.Name)
		}
		total += comp.MaxMarks
	}
	if !withinMaxTotal(total) {
		return fmt.Errorf("%w: weightage sums to %.2f, above %d", ErrInvalidScheme, total, MaxTotalMarks)
	}
	return nil
}

// MaxTotal returns the sum of component maxima.
func (s Scheme) MaxTotal() float64 {
	total := 0.0
	for _, comp := range s {
		total += comp.MaxMarks
	}
	return total
}

// Total validates marks against the scheme and returns their sum, added in
// scheme order and rounded to two decimals. Components with no entry count
// as zero.
func (s Scheme) Total(marks map[string]float64) (float64, error) {
	byName := make(map[string]Component, len(s))
	for _, comp := range s {
		byName[normalize(comp.Name)] = comp
	}
	entered := make(map[string]float64, len(marks))
	for name, value := range marks {
		key := normalize(name)
		comp, ok := byName[key]
		if !ok {
			return 0, fmt.Errorf("%w: unknown component %q", ErrInvalidMarks, name)
		}
		if _, dup := entered[key]; dup {
			return 0, fmt.Errorf("%w: component %q entered twice", ErrInvalidMarks, comp.Name)
		}
		if value < 0 || value > comp.MaxMarks {
			return 0, fmt.Errorf("%w: %s must be between 0 and %.2f", ErrInvalidMarks, comp.Name, comp.MaxMarks)
		}
		entered[key] = value
	}

	total := 0.0
	for _, comp := range s {
		total += entered[normalize(comp.Name)]
	}
	total = RoundMarks(total)
	if !withinMaxTotal(total) {
		return 0, fmt.Errorf("%w: total %.2f exceeds %d", ErrInvalidMarks, total, MaxTotalMarks)
	}
	return total, nil
}

// withinMaxTotal is the single bound check for weightage sums and totals.
func withinMaxTotal(total float64) bool {
	return RoundMarks(total) <= MaxTotalMarks
}

// Canonical returns the configured spelling of a component name.
func (s Scheme) Canonical(name string) (string, bool) {
	key := normalize(name)
	for _, comp := range s {
		if normalize(comp.Name) == key {
			return comp.Name, true
		}
	}
	return "", false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
