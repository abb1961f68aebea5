package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dronemesh/pkg/cache"
	"github.com/matzehuels/dronemesh/pkg/config"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"dot, json,svg", []string{"dot", "json", "svg"}},
		{"dot,,png,", []string{"dot", "png"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.in)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestSplitFormats(t *testing.T) {
	text, images := splitFormats([]string{"svg", "dot", "png", "json"})
	if diff := cmp.Diff([]string{"dot", "json"}, text); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"svg", "png"}, images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(strings.NewReader("")) {
		t.Error("a strings.Reader is not a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if isTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	tests := []struct {
		name    string
		backend string
		noCache bool
		check   func(cache.Cache) bool
	}{
		{"no-cache flag", config.BackendFile, true, func(c cache.Cache) bool { _, ok := c.(*cache.NullCache); return ok }},
		{"none", config.BackendNone, false, func(c cache.Cache) bool { _, ok := c.(*cache.NullCache); return ok }},
		{"file", config.BackendFile, false, func(c cache.Cache) bool { _, ok := c.(*cache.FileCache); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&bytes.Buffer{}, LogInfo)
			c.Config.Cache.Backend = tt.backend
			cc, err := c.newCache(ctx, tt.noCache)
			if err != nil {
				t.Fatalf("newCache error: %v", err)
			}
			defer cc.Close()
			if !tt.check(cc) {
				t.Errorf("newCache returned %T", cc)
			}
		})
	}
}

func TestNewCacheRedisUnavailable(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Config.Cache.Backend = config.BackendRedis
	c.Config.Cache.RedisURL = "redis://127.0.0.1:1/0?dial_timeout=200ms&max_retries=-1"

	cc, err := c.newCache(context.Background(), false)
	if err != nil {
		t.Fatalf("newCache error: %v", err)
	}
	if _, ok := cc.(*cache.NullCache); !ok {
		t.Errorf("unreachable redis should disable caching, got %T", cc)
	}
	if !strings.Contains(buf.String(), "redis unavailable") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestNewCacheRedisBadURL(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.Config.Cache.Backend = config.BackendRedis
	c.Config.Cache.RedisURL = "not a url"
	if _, err := c.newCache(context.Background(), false); err == nil {
		t.Error("expected an error for a malformed redis URL")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, log.DebugLevel))
	ctx := context.Background()

	h.OnThinStart(ctx, 5, 2)
	h.OnThinComplete(ctx, 5, "floor", 0, nil)
	h.OnCacheHit(ctx, "mesh")

	out := buf.String()
	for _, want := range []string{"thin start", "thin complete", "reason=floor", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommand(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"cache", "completion", "render", "serve", "thin"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("root command missing %q (have %v)", want, names)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root command should have --config")
	}
}

func TestCompletionCommand(t *testing.T) {
	c := testCLI(t)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(out.String(), "dronemesh") {
		t.Error("bash completion should mention dronemesh")
	}
}

func TestCachePathCommand(t *testing.T) {
	c := testCLI(t)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	dir, _ := cacheDir()
	if strings.TrimSpace(out.String()) != dir {
		t.Errorf("cache path = %q, want %q", out.String(), dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	c := testCLI(t)
	dir, _ := cacheDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = fc.Set(ctx, "mesh:a", []byte("x"), 0)
	_ = fc.Set(ctx, "mesh:b", []byte("y"), 0)

	if err := execute(t, c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if _, hit, _ := fc.Get(ctx, "mesh:a"); hit {
		t.Error("entry should be gone after cache clear")
	}
}
