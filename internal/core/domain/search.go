package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Search pattern limits. Counted repetitions and nested groups multiply
// the size of the compiled program, so oversized patterns are rejected
// before they reach the compiler.
const (
	maxPatternLength   = 256
	maxRepetitionBound = 1000
	maxGroupDepth      = 3
)

var repetitionBounds = regexp.MustCompile(`\{(\d+)(?:,(\d*))?\}`)

// CompileSearchPattern validates a caller-supplied search pattern and
// compiles it case-insensitively. Empty, oversized, or structurally
// excessive patterns fail with ErrInvalidPattern, as do patterns that
// do not parse at all.
func CompileSearchPattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty pattern: %w", ErrInvalidPattern)
	}
	if len(pattern) > maxPatternLength {
		return nil, fmt.Errorf("pattern exceeds %d characters: %w", maxPatternLength, ErrInvalidPattern)
	}

	for _, m := range repetitionBounds.FindAllStringSubmatch(pattern, -1) {
		lo := boundValue(m[1])
		hi := lo
		if m[2] != "" {
			hi = boundValue(m[2])
		}
		if lo > maxRepetitionBound || hi > maxRepetitionBound {
			return nil, fmt.Errorf("repetition bound exceeds %d: %w", maxRepetitionBound, ErrInvalidPattern)
		}
	}

	depth, deepest := 0, 0
	for _, r := range pattern {
		switch r {
		case '(':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case ')':
			depth--
		}
	}
	if deepest > maxGroupDepth {
		return nil, fmt.Errorf("groups nest deeper than %d levels: %w", maxGroupDepth, ErrInvalidPattern)
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidPattern)
	}
	return re, nil
}

func boundValue(digits string) int {
	if len(digits) > 4 {
		return maxRepetitionBound + 1
	}
	n, _ := strconv.Atoi(digits)
	return n
}
