package commsutil

import "testing"

func TestBuildPermissionSubject(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		want     string
	}{
		{"basic", "launcher", "launch.broker.permission.launcher"},
		{"dotted", "com.example.app", "launch.broker.permission.com_example_app"},
		{"wildcards", "a*b>c", "launch.broker.permission.a_b_c"},
		{"empty", "", "launch.broker.permission._"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPermissionSubject(tt.clientID)
			if got != tt.want {
				t.Errorf("commsutil:subjects_test - BuildPermissionSubject(%q) = %q, want %q", tt.clientID, got, tt.want)
			}
		})
	}
}

func TestSanitizeToken_LeavesSafeCharacters(t *testing.T) {
	in := "launcher-01_A"
	if got := SanitizeToken(in); got != in {
		t.Errorf("commsutil:subjects_test - SanitizeToken(%q) = %q", in, got)
	}
}
