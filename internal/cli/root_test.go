package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"transit_router/pkg/ch"
	"transit_router/pkg/graph"
)

func TestSetVersion(t *testing.T) {
	old := [3]string{version, commit, date}
	t.Cleanup(func() { SetVersion(old[0], old[1], old[2]) })

	SetVersion("1.0.0", "abc123", "2026-01-01")
	if version != "1.0.0" || commit != "abc123" || date != "2026-01-01" {
		t.Errorf("SetVersion: got %q %q %q", version, commit, date)
	}
}

func TestRootSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"contract", "serve", "query"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

// writeTestGraph contracts a small square with a diagonal and writes it to
// a temporary file:
//
//	0 --100-- 1
//	|       / |
//	300   150 100
//	|   /     |
//	3 --100-- 2
func writeTestGraph(t *testing.T) string {
	t.Helper()
	g := graph.FromEdges(4, []graph.Edge{
		{From: 0, To: 1, Weight: 100},
		{From: 1, To: 2, Weight: 100},
		{From: 2, To: 3, Weight: 100},
		{From: 3, To: 0, Weight: 300},
		{From: 1, To: 3, Weight: 150},
	})
	path := filepath.Join(t.TempDir(), "graph.bin")
	if err := graph.WriteBinary(path, ch.Contract(g)); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	path := writeTestGraph(t)

	tests := []struct {
		name   string
		args   []string
		want   string
		method string
	}{
		{"identity", []string{"-s", "2", "-t", "2"}, "distance: 0", "identity"},
		{"via diagonal", []string{"-s", "0", "-t", "3"}, "distance: 250", ""},
		{"single transit node", []string{"-s", "0", "-t", "2", "-k", "1"}, "distance: 200", ""},
		{"compare", []string{"-s", "0", "-t", "3", "--compare"}, "dijkstra: 250", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"query", "--graph", path}, tt.args...)
			out, err := runRoot(t, args...)
			if err != nil {
				t.Fatalf("query: %v\n%s", err, out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
			if tt.method != "" && !strings.Contains(out, "method:   "+tt.method) {
				t.Errorf("output %q does not report method %q", out, tt.method)
			}
		})
	}
}

func TestQueryCommandErrors(t *testing.T) {
	path := writeTestGraph(t)

	if _, err := runRoot(t, "query", "--graph", path, "-s", "0", "-t", "9"); err == nil {
		t.Error("expected error for out-of-range target")
	}
	if _, err := runRoot(t, "query", "--graph", filepath.Join(t.TempDir(), "missing.bin"), "-s", "0", "-t", "1"); err == nil {
		t.Error("expected error for missing graph file")
	}
	if _, err := runRoot(t, "query", "--graph", path, "-s", "0"); err == nil {
		t.Error("expected error for missing --target")
	}
}

func TestLoadServeConfigOverrides(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--graph", "other.bin", "-k", "64"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	opts := serveOpts{graph: "other.bin", k: 64}

	cfg, err := loadServeConfig(cmd, opts)
	if err != nil {
		t.Fatalf("loadServeConfig: %v", err)
	}
	if cfg.Graph != "other.bin" {
		t.Errorf("Graph = %q, want other.bin", cfg.Graph)
	}
	if cfg.TNR.TransitNodes != 64 {
		t.Errorf("TransitNodes = %d, want 64", cfg.TNR.TransitNodes)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default :8080", cfg.Server.Addr)
	}
}

func TestLoadServeConfigInvalid(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--transit-nodes=-3"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if _, err := loadServeConfig(cmd, serveOpts{k: -3}); err == nil {
		t.Error("expected validation error for negative transit node count")
	}
}

func TestContractRejectsUnknownOrdering(t *testing.T) {
	input := filepath.Join(t.TempDir(), "missing.osm.pbf")
	_, err := runRoot(t, "contract", "--input", input, "--ordering", "random")
	if err == nil || !strings.Contains(err.Error(), "unknown ordering") {
		t.Errorf("err = %v, want unknown ordering", err)
	}
}
