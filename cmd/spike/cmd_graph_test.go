package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestGraphCmd_DOT(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, newGraphCmd(), "graph", scenarioPath("chain.yaml"), "--ticks", "0")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	for _, want := range []string{"digraph spike {", `label="tick 0"`, "n1 -> n2", "n2 -> n3", `fillcolor="#33cc00"`} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q:\n%s", want, out)
		}
	}
}

func TestGraphCmd_JSON(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, newGraphCmd(), "graph", scenarioPath("latch.yaml"), "--format", "json")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	var graph struct {
		Tick      int `json:"tick"`
		NodeCount int `json:"node_count"`
		Nodes     []struct {
			Firing bool `json:"firing"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(out), &graph); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if graph.Tick != 60 || graph.NodeCount != 1 {
		t.Errorf("got tick %d nodes %d, want 60 and 1", graph.Tick, graph.NodeCount)
	}
	if len(graph.Nodes) != 1 || !graph.Nodes[0].Firing {
		t.Errorf("latched neuron should still be firing: %+v", graph.Nodes)
	}
}

func TestGraphCmd_BadFormat(t *testing.T) {
	isolateHome(t)
	if _, err := execute(t, newGraphCmd(), "graph", scenarioPath("chain.yaml"), "--format", "svg"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGraphCmd_Serve(t *testing.T) {
	isolateHome(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		rootCmd := newTestRootCmd()
		rootCmd.AddCommand(newGraphCmd())
		rootCmd.SetOut(pw)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs([]string{"graph", scenarioPath("chain.yaml"), "--serve", "--no-open"})
		done <- rootCmd.ExecuteContext(ctx)
		pw.Close()
	}()

	lineCh := make(chan string, 1)
	go func() {
		buf := make([]byte, 4096)
		n, _ := pr.Read(buf)
		lineCh <- string(buf[:n])
		io.Copy(io.Discard, pr)
	}()

	var line string
	select {
	case line = <-lineCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server start")
	}
	const prefix = "Graph server running at "
	if !strings.HasPrefix(line, prefix) {
		t.Fatalf("unexpected output %q", line)
	}
	url := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(line, prefix), "\n", 2)[0])

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("graph --serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
