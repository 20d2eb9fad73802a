package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swimsync/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	sourceRoot string
	mountPath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		sourceRoot: filepath.Join(base, "music"),
		mountPath:  filepath.Join(base, "mount"),
	}
	if err := os.MkdirAll(env.sourceRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(env.mountPath, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[sources]
roots = [%q]

[device]
mount_path = %q
capacity_mb = 10

[library]
format_preference = "mp3"
cache_path = %q

[playlist]
session_path = %q

[archive]
dir = %q

[logging]
level = "error"
log_dir = %q
`,
		env.sourceRoot,
		env.mountPath,
		filepath.Join(env.baseDir, "cache", "library.db"),
		filepath.Join(env.baseDir, "state", "session.json"),
		filepath.Join(env.baseDir, "archives"),
		filepath.Join(env.baseDir, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// addSourceTrack drops a junk-byte audio file into the source root. Tag
// extraction falls back to the "Artist - Title" filename convention.
func (env *cliTestEnv) addSourceTrack(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(env.sourceRoot, name)
	testsupport.WriteFile(t, path, size)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
