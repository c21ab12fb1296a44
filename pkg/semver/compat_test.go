package semver

import (
	"errors"
	"testing"
)

func TestIsMajorOnly(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"12", true},
		{"1.0", false},
		{"^1.0.0", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsMajorOnly(tt.input); got != tt.want {
			t.Errorf("semver:compat_test - IsMajorOnly(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		name           string
		version        string
		constraint     string
		wantIncompat   bool
		wantParseError bool
	}{
		{"major only match", "1.4.2", "1", false, false},
		{"major only mismatch", "2.0.0", "1", true, false},
		{"caret", "1.2.0", "^1.1.0", false, false},
		{"caret too old", "1.0.9", "^1.1.0", true, false},
		{"comparison", "3.0.0", ">=2.0.0", false, false},
		{"empty accepts all", "0.0.1", "", false, false},
		{"bad version", "one", "1", false, true},
		{"bad constraint", "1.0.0", "~>banana", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatible(tt.version, tt.constraint)
			switch {
			case tt.wantIncompat:
				if !errors.Is(err, ErrIncompatible) {
					t.Errorf("semver:compat_test - expected ErrIncompatible, got %v", err)
				}
			case tt.wantParseError:
				if err == nil || errors.Is(err, ErrIncompatible) {
					t.Errorf("semver:compat_test - expected a parse error, got %v", err)
				}
			default:
				if err != nil {
					t.Errorf("semver:compat_test - unexpected error: %v", err)
				}
			}
		})
	}
}
