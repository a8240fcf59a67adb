package tools

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RunResult is the outcome of one bounded tool invocation, grounded on the
// original executor's RunResult shape (status/output/error/duration_ms).
type RunResult struct {
	Status     string
	Output     any
	Error      string
	DurationMS int64
	Artifact   *ArtifactFile
}

// ArtifactFile is a synthesized artifact produced on a successful run.
type ArtifactFile struct {
	Name    string
	Content []byte
}

// Executor runs a tool by name against a workspace root under a hard
// wall-clock timeout, mirroring the original's
// ThreadPoolExecutor(max_workers=1) + future.result(timeout=...) dispatch
// with a goroutine and context.WithTimeout.
type Executor struct {
	registry *Registry
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute invokes tool with inputs, injecting workspace_root if absent,
// bounding wall-clock duration by timeoutSec. If the tool does not return
// within the budget the result is status=failed with a "tool timeout after
// Ns" error. On success an artifact named "<tool>_<8-hex>.json" is
// synthesized from the JSON-encoded output.
func (e *Executor) Execute(ctx context.Context, toolName, workspaceRoot string, inputs map[string]any, timeoutSec int) RunResult {
	if timeoutSec < 1 {
		timeoutSec = 1
	}

	handler, ok := e.registry.Lookup(toolName)
	if !ok {
		return RunResult{Status: "failed", Error: fmt.Sprintf("unknown tool: %s", toolName)}
	}

	callInputs := make(map[string]any, len(inputs)+1)
	for k, v := range inputs {
		callInputs[k] = v
	}
	if _, ok := callInputs["workspace_root"]; !ok {
		callInputs["workspace_root"] = workspaceRoot
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	type outcome struct {
		output any
		err    error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		output, err := handler(runCtx, callInputs)
		done <- outcome{output: output, err: err}
	}()

	select {
	case o := <-done:
		elapsed := time.Since(start).Milliseconds()
		if o.err != nil {
			return RunResult{Status: "failed", Error: o.err.Error(), DurationMS: elapsed}
		}
		artifact, artifactErr := synthesizeArtifact(toolName, o.output)
		if artifactErr != nil {
			return RunResult{Status: "failed", Error: artifactErr.Error(), DurationMS: elapsed}
		}
		return RunResult{Status: "succeeded", Output: o.output, DurationMS: elapsed, Artifact: artifact}
	case <-runCtx.Done():
		elapsed := time.Since(start).Milliseconds()
		return RunResult{
			Status:     "failed",
			Error:      fmt.Sprintf("tool timeout after %ds", timeoutSec),
			DurationMS: elapsed,
		}
	}
}

func synthesizeArtifact(toolName string, output any) (*ArtifactFile, error) {
	payload, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, err
	}
	suffix, err := randomHex(4)
	if err != nil {
		return nil, err
	}
	return &ArtifactFile{
		Name:    fmt.Sprintf("%s_%s.json", toolName, suffix),
		Content: payload,
	}, nil
}

func randomHex(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
