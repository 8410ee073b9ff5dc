// Package runner executes generated analysis scripts against a dataset
// snapshot. The script runs as an interpreter subprocess with the dataset
// staged as CSV and bound to `df`; stdout and stderr are captured in full
// and artifacts are recovered from stdout by the output parser. The runner
// never returns an error: every fault is classified and carried back as
// data in the Result.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/datenai/datalab/internal/dataset"
	"github.com/datenai/datalab/internal/domain"
	"github.com/datenai/datalab/internal/parser"
)

// Result carries everything one execution attempt produced
type Result struct {
	Artifacts []domain.Artifact
	Fault     string
	Elapsed   time.Duration
	Stdout    string
	Stderr    string
}

// Faulted reports whether the attempt raised a fault
func (r *Result) Faulted() bool {
	return r.Fault != ""
}

// Runner executes scripts with a configured interpreter and timeout
type Runner struct {
	interpreter string
	timeout     time.Duration
}

// New creates a Runner. interpreter is the python binary to invoke.
func New(interpreter string, timeout time.Duration) *Runner {
	return &Runner{interpreter: interpreter, timeout: timeout}
}

// preamble binds the staged dataset and the allowed analysis libraries
// before the generated code runs. The plotting backend must be headless.
const preamble = `import warnings
warnings.filterwarnings("ignore")
import io, json, base64
import matplotlib
matplotlib.use("Agg")
import matplotlib.pyplot as plt
import numpy as np
import pandas as pd
try:
    import seaborn as sns
except ImportError:
    sns = None
try:
    import scipy
    import sklearn
except ImportError:
    pass
df = pd.read_csv("data.csv")
`

// Run executes code against a private snapshot of frame. Elapsed time is
// wall-clock around the interpreter invocation only, excluding staging.
func (r *Runner) Run(ctx context.Context, code string, frame *dataset.Frame) *Result {
	dir, err := os.MkdirTemp("", "datalab-run-")
	if err != nil {
		return &Result{Fault: fmt.Sprintf("staging execution: %v", err)}
	}
	defer os.RemoveAll(dir)

	dataFile, err := os.Create(filepath.Join(dir, "data.csv"))
	if err != nil {
		return &Result{Fault: fmt.Sprintf("staging dataset: %v", err)}
	}
	if err := frame.WriteCSV(dataFile); err != nil {
		dataFile.Close()
		return &Result{Fault: fmt.Sprintf("staging dataset: %v", err)}
	}
	dataFile.Close()

	script := preamble + "\n" + code + "\n"
	if err := os.WriteFile(filepath.Join(dir, "script.py"), []byte(script), 0o644); err != nil {
		return &Result{Fault: fmt.Sprintf("staging script: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.interpreter, "script.py")
	cmd.Dir = dir

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return &Result{Fault: fmt.Sprintf("starting interpreter: %v", err)}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return &Result{Fault: fmt.Sprintf("starting interpreter: %v", err)}
	}

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})

	start := time.Now()
	if err := cmd.Start(); err != nil {
		// A failed start closes the pipes; join the drain goroutines
		// before returning.
		_ = g.Wait()
		return &Result{Fault: fmt.Sprintf("starting interpreter: %v", err)}
	}
	_ = g.Wait()
	runErr := cmd.Wait()
	elapsed := time.Since(start)

	result := &Result{
		Elapsed: elapsed,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	if runErr != nil {
		result.Fault = classifyFault(result.Stderr, runErr, ctx.Err(), r.timeout)
		return result
	}

	result.Artifacts = parser.Parse(result.Stdout)
	return result
}

// classifyFault turns interpreter failure output into the message surfaced
// to the oracle and, ultimately, the client. Undefined-reference faults get
// a remediation hint; everything else keeps the interpreter's own
// type-and-message line.
func classifyFault(stderr string, runErr, ctxErr error, timeout time.Duration) string {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Sprintf("execution timed out after %s", timeout)
	}

	line := lastNonEmptyLine(stderr)
	if line == "" {
		return runErr.Error()
	}
	if strings.Contains(line, "NameError") {
		return fmt.Sprintf("Variable not defined: %s. Check that all variables (like plot_base64) are properly defined before use.", line)
	}
	return line
}

// lastNonEmptyLine returns the final non-blank line, which for an
// interpreter traceback is the "Type: message" summary.
func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
