// Package gateway applies configuration patches to the OpenClaw gateway
// by invoking its CLI.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner invokes an external command with input on stdin and captured output.
// ok is false on non-zero exit, start failure, or timeout; stderr then holds
// the diagnostic text. Tests inject a fake Runner to avoid spawning processes.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin string) (ok bool, stdout, stderr string)
}

// ExecRunner runs real processes with a per-call timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes name with args, feeding stdin and capturing both streams.
// The command is killed when the timeout elapses; that counts as failure.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, stdin string) (bool, string, string) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		stderr := errBuf.String()
		if stderr == "" {
			stderr = err.Error()
		} else {
			stderr = stderr + " (" + err.Error() + ")"
		}
		return false, out.String(), stderr
	}
	return true, out.String(), errBuf.String()
}

// patch is the JSON document accepted by `<gateway> gateway config.patch`.
type patch struct {
	Agents struct {
		Defaults struct {
			Model string `json:"model"`
		} `json:"defaults"`
	} `json:"agents"`
}

// Client patches the gateway's default model.
type Client struct {
	bin    string
	runner Runner
}

// NewClient creates a Client invoking bin via runner.
func NewClient(bin string, runner Runner) *Client {
	return &Client{bin: bin, runner: runner}
}

// PatchModel sets the gateway's default model by piping a config patch to
// `<bin> gateway config.patch`. The same call serves both switch and
// restore; only the model string differs.
func (c *Client) PatchModel(ctx context.Context, model string) error {
	var p patch
	p.Agents.Defaults.Model = model
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("gateway.PatchModel: marshal: %w", err)
	}

	ok, _, stderr := c.runner.Run(ctx, c.bin, []string{"gateway", "config.patch"}, string(body))
	if !ok {
		return fmt.Errorf("gateway.PatchModel: config.patch failed: %s", strings.TrimSpace(stderr))
	}
	return nil
}
