package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swimsync/internal/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeConfig(t, t.TempDir(), `
[sources]
roots = ["~/Music", "~/more-music"]

[device]
mount_path = "~/player"
capacity_mb = 2000

[library]
format_preference = "MP3"
extensions = ["mp3", ".M4A"]
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be read")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}

	if got := cfg.Sources.Roots[0]; got != filepath.Join(tempHome, "Music") {
		t.Fatalf("unexpected first root: %q", got)
	}
	if cfg.Device.MountPath != filepath.Join(tempHome, "player") {
		t.Fatalf("mount path not expanded: %q", cfg.Device.MountPath)
	}
	if cfg.CapacityBytes() != 2000*1024*1024 {
		t.Fatalf("unexpected capacity bytes: %d", cfg.CapacityBytes())
	}
	if cfg.Library.FormatPreference != "mp3" {
		t.Fatalf("format preference not normalized: %q", cfg.Library.FormatPreference)
	}

	exts := cfg.AllowedExtensions()
	for _, want := range []string{".mp3", ".m4a"} {
		if _, ok := exts[want]; !ok {
			t.Fatalf("extension %s missing from allowlist %v", want, exts)
		}
	}

	if cfg.Playlist.SessionPath != filepath.Join(tempHome, ".local", "share", "swimsync", "session.json") {
		t.Fatalf("unexpected session path: %q", cfg.Playlist.SessionPath)
	}
	if cfg.Transfer.CopyTimeoutSeconds != 120 {
		t.Fatalf("expected default copy timeout, got %d", cfg.Transfer.CopyTimeoutSeconds)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(cfg.Archive.Dir); err != nil {
		t.Fatalf("archive dir not created: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "no roots",
			body: "[device]\nmount_path = \"/media/player\"\n",
			want: "sources.roots",
		},
		{
			name: "duplicate roots",
			body: "[sources]\nroots = [\"/music\", \"/music\"]\n\n[device]\nmount_path = \"/media/player\"\n",
			want: "more than once",
		},
		{
			name: "missing mount",
			body: "[sources]\nroots = [\"/music\"]\n",
			want: "device.mount_path",
		},
		{
			name: "bad capacity",
			body: "[sources]\nroots = [\"/music\"]\n\n[device]\nmount_path = \"/media/player\"\ncapacity_mb = -1\n",
			want: "capacity_mb",
		},
		{
			name: "bad format preference",
			body: "[sources]\nroots = [\"/music\"]\n\n[device]\nmount_path = \"/media/player\"\n\n[library]\nformat_preference = \"flac\"\n",
			want: "format_preference",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.body)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[device]") {
		t.Fatal("sample missing device section")
	}
}
