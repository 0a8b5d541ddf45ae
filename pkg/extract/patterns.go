package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Side tells whether a marker opens a problem statement or its solution.
type Side int

const (
	// ProblemSide markers open a problem statement
	ProblemSide Side = iota
	// SolutionSide markers open a solution
	SolutionSide
)

// String returns "problem" or "solution"
func (s Side) String() string {
	if s == SolutionSide {
		return "solution"
	}
	return "problem"
}

// ParseSide converts "problem" or "solution" into a Side
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "problem":
		return ProblemSide, nil
	case "solution":
		return SolutionSide, nil
	default:
		return ProblemSide, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Pattern is a named marker expression matched against normalized lines.
// Expressions are expected to anchor at the start of the line.
type Pattern struct {
	Name   string
	Side   Side
	Regexp *regexp.Regexp
}

// Built-in pattern names
const (
	PatternNumbered = "numbered"
	PatternExercise = "exercise"
	PatternSolution = "solution"
)

var builtinPatterns = []Pattern{
	{
		Name:   PatternNumbered,
		Side:   ProblemSide,
		Regexp: regexp.MustCompile(`^\d+\.(\s|$)`),
	},
	{
		Name:   PatternExercise,
		Side:   ProblemSide,
		Regexp: regexp.MustCompile(`(?i)^(exercise|problem|question)\s+\d+`),
	},
	{
		Name:   PatternSolution,
		Side:   SolutionSide,
		Regexp: regexp.MustCompile(`(?i)^(solution|answer)s?\s+(to\s+)?(exercise\s+|problem\s+)?\d+`),
	},
}

// BuiltinPatterns returns the patterns enabled by default
func BuiltinPatterns() []Pattern {
	patterns := make([]Pattern, len(builtinPatterns))
	copy(patterns, builtinPatterns)
	return patterns
}

// LookupPattern returns the built-in pattern with the given name
func LookupPattern(name string) (Pattern, error) {
	for _, p := range builtinPatterns {
		if p.Name == name {
			return p, nil
		}
	}
	return Pattern{}, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
}

// CompilePattern builds a custom pattern from its configured form
func CompilePattern(name, side, expr string) (Pattern, error) {
	s, err := ParseSide(side)
	if err != nil {
		return Pattern{}, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %s: %w", ErrInvalidPattern, name, err)
	}
	return Pattern{Name: name, Side: s, Regexp: re}, nil
}

// keyPattern finds the marker number inside a matched line
var keyPattern = regexp.MustCompile(`\d+`)

// markerKey returns the raw number token of a line and its normalized key
// ("007" -> "7"). ok is false when the line holds no number.
func markerKey(line string) (raw, key string, ok bool) {
	raw = keyPattern.FindString(line)
	if raw == "" {
		return "", "", false
	}
	key = strings.TrimLeft(raw, "0")
	if key == "" {
		key = "0"
	}
	return raw, key, true
}
