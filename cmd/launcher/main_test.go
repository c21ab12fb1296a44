package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/manifest"
)

const mainTestPrefix = "cmd/launcher:main_test"

func TestParseArgs(t *testing.T) {
	o, _, err := parseArgs([]string{
		"--kind", "broadcast", "-n", "com.example/.Receiver",
		"-a", "com.example.PING", "-c", "cat.one", "-c", "cat.two",
		"--channel", "root,direct", "-e", "count:int=3", "-e", "name=bob",
	})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	if o.kind != "broadcast" || o.component != "com.example/.Receiver" || o.action != "com.example.PING" {
		t.Errorf("%s - options = %+v", mainTestPrefix, o)
	}
	if len(o.categories) != 2 || len(o.channels) != 2 || o.channels[1] != "direct" || len(o.extras) != 2 {
		t.Errorf("%s - repeated flags = %v %v %v", mainTestPrefix, o.categories, o.channels, o.extras)
	}
}

func TestParseArgs_RejectsPositional(t *testing.T) {
	if _, _, err := parseArgs([]string{"stray"}); err == nil {
		t.Fatalf("%s - expected error for positional argument", mainTestPrefix)
	}
}

func TestParseExtra(t *testing.T) {
	tests := []struct {
		raw     string
		want    intent.Extra
		wantErr bool
	}{
		{"foo=bar", intent.Extra{Key: "foo", Type: intent.ExtraString, Value: "bar"}, false},
		{"n:int=3", intent.Extra{Key: "n", Type: intent.ExtraInt, Value: "3"}, false},
		{"on:bool=true", intent.Extra{Key: "on", Type: intent.ExtraBool, Value: "true"}, false},
		{"url:uri=https://x?a=b", intent.Extra{Key: "url", Type: intent.ExtraURI, Value: "https://x?a=b"}, false},
		{"novalue", intent.Extra{}, true},
		{":int=3", intent.Extra{}, true},
		{"b:bundle=x", intent.Extra{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseExtra(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("%s - expected error", mainTestPrefix)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
			}
			if got.Key != tt.want.Key || got.Type != tt.want.Type || got.Value != tt.want.Value {
				t.Errorf("%s - got %+v, want %+v", mainTestPrefix, got, tt.want)
			}
		})
	}
}

func TestResolveManifest_FlagsOverFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "launch.yaml")
	content := "kind: activity\ncomponent: com.example/.Main\nintent:\n  action: android.intent.action.VIEW\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("%s - write failed: %v", mainTestPrefix, err)
	}

	o, _, err := parseArgs([]string{"-f", p, "-n", "com.example/.Other", "-e", "foo=bar"})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	m, err := resolveManifest(o)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	if m.Component != "com.example/.Other" || m.Intent.Action != intent.ActionView || len(m.Extras) != 1 {
		t.Errorf("%s - manifest = %+v", mainTestPrefix, m)
	}
}

func TestResolveManifest_FlagsCompleteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "launch.yaml")
	if err := os.WriteFile(p, []byte("command: input keyevent 3\n"), 0o600); err != nil {
		t.Fatalf("%s - write failed: %v", mainTestPrefix, err)
	}

	o, _, err := parseArgs([]string{"-f", p, "--kind", "shell"})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	m, err := resolveManifest(o)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	if m.Kind != intent.KindShell || m.Command != "input keyevent 3" {
		t.Errorf("%s - manifest = %+v", mainTestPrefix, m)
	}
}

func TestResolveManifest_FlagsOnly(t *testing.T) {
	t.Setenv(manifest.EnvManifestFile, "")
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("%s - chdir failed: %v", mainTestPrefix, err)
	}
	defer func() { _ = os.Chdir(wd) }()

	o, _, err := parseArgs([]string{"-n", "com.example/.Main"})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	m, err := resolveManifest(o)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	if m.Kind != intent.KindActivity {
		t.Errorf("%s - Kind = %q, want activity", mainTestPrefix, m.Kind)
	}
}

func TestResolveManifest_MissingExplicitFile(t *testing.T) {
	o, _, err := parseArgs([]string{"-f", filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	if _, err := resolveManifest(o); err == nil {
		t.Fatalf("%s - expected error for missing explicit file", mainTestPrefix)
	}
}
