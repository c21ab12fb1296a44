package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const logPrefix = "manifest:loader"

// EnvManifestFile names the environment variable consulted by Load.
const EnvManifestFile = "LAUNCH_MANIFEST"

// ErrNotFound is returned when none of the candidate files exists.
var ErrNotFound = errors.New("no launch manifest found")

// Load reads the first existing manifest. Paths passed in are tried first,
// then LAUNCH_MANIFEST, then launch.yaml and launch.json in the working
// directory. A file that exists but does not parse is an error.
func Load(paths ...string) (*Manifest, error) {
	return load(paths, Parse)
}

// LoadPartial is Load without validation, for manifests that other sources
// (such as command-line flags) complete before launch.
func LoadPartial(paths ...string) (*Manifest, error) {
	return load(paths, Decode)
}

func load(paths []string, parse func([]byte) (*Manifest, error)) (*Manifest, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvManifestFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "launch.yaml", "launch.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", logPrefix, p, err)
		}

		m, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s - %s: %w", logPrefix, p, err)
		}
		slog.Info(fmt.Sprintf("%s - Loaded manifest from %s", logPrefix, p))
		return m, nil
	}

	return nil, ErrNotFound
}

// Parse decodes and validates a manifest. JSON input parses as YAML.
func Parse(data []byte) (*Manifest, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode decodes a manifest without validating it.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s - failed to parse manifest: %w", logPrefix, err)
	}
	return &m, nil
}
