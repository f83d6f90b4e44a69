package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/antpack/pkg/render"
)

// isolateCache points the cache directory at a temporary directory and
// returns the XDG cache home.
func isolateCache(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	return base
}

// execute runs the root command with args and returns what the command
// wrote to its output stream.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"solve", "convert", "graph", "cache", "serve", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version error: %v", err)
	}
	if !strings.HasPrefix(out, "antpack version ") {
		t.Errorf("--version output = %q", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s error: %v", shell, err)
		}
		if !strings.Contains(out, "antpack") {
			t.Errorf("completion %s output does not mention antpack", shell)
		}
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestParseFormats(t *testing.T) {
	got, err := parseFormats("svg, dot")
	if err != nil {
		t.Fatalf("parseFormats error: %v", err)
	}
	if len(got) != 2 || got[0] != render.FormatSVG || got[1] != render.FormatDOT {
		t.Errorf("parseFormats = %v, want [svg dot]", got)
	}
	if got, err := parseFormats(""); err != nil || got != nil {
		t.Errorf("parseFormats(\"\") = %v, %v; want nil, nil", got, err)
	}
	if _, err := parseFormats("svg,gif"); err == nil {
		t.Error("parseFormats with gif should fail")
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct{ input, output, want string }{
		{"problems/demo.toml", "", "problems/demo"},
		{"problems/demo.toml", "out/best.json", "out/best"},
		{"", "", "antpack"},
		{"", "x", "x"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.input, tt.output); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}
