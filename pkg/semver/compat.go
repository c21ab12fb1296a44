// Package semver checks broker protocol versions against client constraints.
package semver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:compat"

// ErrIncompatible is returned when a version does not satisfy a constraint.
var ErrIncompatible = errors.New("incompatible version")

var majorOnlyRegex = regexp.MustCompile(`^\d+$`)

// IsMajorOnly checks if a constraint is a major-only specifier (e.g., "1").
func IsMajorOnly(constraint string) bool {
	return majorOnlyRegex.MatchString(constraint)
}

// ParseConstraint parses a constraint string. Major-only specifiers are
// treated as caret ranges, so "1" accepts any 1.x.y release. An empty
// constraint accepts every version.
func ParseConstraint(constraint string) (*masterminds.Constraints, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		constraint = "*"
	}
	if IsMajorOnly(constraint) {
		constraint = "^" + constraint
	}
	c, err := masterminds.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid constraint %q: %w", logPrefix, constraint, err)
	}
	return c, nil
}

// CheckCompatible returns nil when version satisfies constraint. A version
// that does not satisfy it yields an error wrapping ErrIncompatible.
func CheckCompatible(version, constraint string) error {
	c, err := ParseConstraint(constraint)
	if err != nil {
		return err
	}
	v, err := masterminds.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%s - %s does not satisfy %s: %w", logPrefix, v, c, ErrIncompatible)
	}
	return nil
}
