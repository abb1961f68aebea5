package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dronemesh/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[mesh]
nodes = 25
percentage = 20
floor_mode = "strict"

[render]
engine = "external"
formats = ["dot", "png"]

[cache]
backend = "redis"
ttl = "90m"

[server]
max_nodes = 120
request_timeout = "30s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := Default()
	want.Mesh.Nodes = 25
	want.Mesh.Percentage = 20
	want.Mesh.FloorMode = "strict"
	want.Render.Engine = "external"
	want.Render.Formats = []string{"dot", "png"}
	want.Cache.Backend = "redis"
	want.Cache.TTL = Duration{90 * time.Minute}
	want.Server.MaxNodes = 120
	want.Server.RequestTimeout = Duration{30 * time.Second}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want errors.Code
	}{
		{"syntax", "[mesh\nnodes = 3", errors.ErrCodeInvalidConfig},
		{"unknown key", "[mesh]\ndrones = 3", errors.ErrCodeInvalidConfig},
		{"zero nodes", "[mesh]\nnodes = 0", errors.ErrCodeInvalidSize},
		{"percentage", "[mesh]\npercentage = 150", errors.ErrCodeInvalidConfig},
		{"layout", "[mesh]\nlayout = \"spring\"", errors.ErrCodeInvalidLayout},
		{"floor mode", "[mesh]\nfloor_mode = \"lenient\"", errors.ErrCodeInvalidConfig},
		{"engine", "[render]\nengine = \"gpu\"", errors.ErrCodeInvalidEngine},
		{"format", "[render]\nformats = [\"gif\"]", errors.ErrCodeInvalidFormat},
		{"backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidConfig},
		{"weight", "[mesh]\nweight = -1.0", errors.ErrCodeInvalidConfig},
		{"server max nodes zero", "[server]\nmax_nodes = 0", errors.ErrCodeInvalidConfig},
		{"server max nodes above limit", "[server]\nmax_nodes = 6000", errors.ErrCodeInvalidConfig},
		{"server timeout", "[server]\nrequest_timeout = \"0s\"", errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("Load() code = %q, want %q (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") with no file should succeed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}

	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", AppName, "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.PipelineOptions()

	if opts.Nodes != cfg.Mesh.Nodes || opts.Percentage != cfg.Mesh.Percentage || opts.Layout != "fdp" {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
	opts.Formats[0] = "json"
	if cfg.Render.Formats[0] != "dot" {
		t.Error("PipelineOptions() should copy the formats slice")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("default options should validate: %v", err)
	}
}
