// Package parser turns console arguments into engine values.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gridwars/engine/internal/geo"
	"github.com/gridwars/engine/pkg/core"
)

// ErrArgs is returned when a command gets the wrong number of arguments.
var ErrArgs = errors.New("wrong number of arguments")

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
// Scripts driving the console sometimes print whole numbers as floats.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// Args checks that exactly n arguments were given. usage is shown in the
// error.
func Args(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("%w: got %d, want %d (usage: %s)", ErrArgs, len(args), n, usage)
	}
	return nil
}

// ParseID parses an entity id. Zero is never a valid id.
func ParseID(s string) (core.ID, error) {
	v, err := parseUintFromFloat(strings.TrimPrefix(s, "#"))
	if err != nil {
		return 0, fmt.Errorf("error converting id %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("error converting id %q: ids start at 1", s)
	}
	return core.ID(v), nil
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (core.Point, error) {
	p, err := geo.ParsePoint(s)
	if err != nil {
		return core.Point{}, fmt.Errorf("error parsing point %q: %w", s, err)
	}
	return p, nil
}

// ParseTarget parses "kind#id" or "kind:id", where kind is feature,
// building or unit.
func ParseTarget(s string) (core.Target, error) {
	kind, id, ok := strings.Cut(s, "#")
	if !ok {
		kind, id, ok = strings.Cut(s, ":")
	}
	if !ok {
		return core.Target{}, fmt.Errorf("error parsing target %q: want kind#id", s)
	}
	k, err := core.ParseKind(strings.ToLower(kind))
	if err != nil {
		return core.Target{}, err
	}
	n, err := ParseID(id)
	if err != nil {
		return core.Target{}, err
	}
	return core.Target{Kind: k, ID: n}, nil
}

// ParseMaterial parses a material name, ignoring case.
func ParseMaterial(s string) (core.Material, error) {
	return core.ParseMaterial(strings.ToLower(s))
}
