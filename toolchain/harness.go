// Package toolchain builds generated programs with cargo and runs them.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pyrs/common"
	"pyrs/generate"
)

// DefaultTimeout is the default time limit for running a built program.
const DefaultTimeout = 30 * time.Second

// ReleaseProfile is the cargo profile programs are built with by default.
const ReleaseProfile = "release"

// killGrace is how long a killed program's output pipes are waited on before
// they are forcibly closed.
const killGrace = time.Second

// BuildFailureError is returned when cargo reports that a crate failed to
// build.  Output holds the diagnostics of cargo verbatim.
type BuildFailureError struct {
	Output string
}

func (e *BuildFailureError) Error() string {
	return "cargo build failed:\n" + strings.TrimRight(e.Output, "\n")
}

// ExecutionTimeoutError is returned when a built program runs longer than the
// time limit of the harness.
type ExecutionTimeoutError struct {
	Timeout time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("program did not finish within %s", e.Timeout)
}

// ExecutionFailureError is returned when a built program exits with a non-zero
// status.  It is always accompanied by a populated run report.
type ExecutionFailureError struct {
	ExitCode int
}

func (e *ExecutionFailureError) Error() string {
	return fmt.Sprintf("program exited with status %d", e.ExitCode)
}

// RunReport describes the outcome of a build and an optional run.
type RunReport struct {
	// The combined output of the build.
	BuildOutput string

	// Whether the built program was executed.
	Executed bool

	Stdout, Stderr string
	ExitCode       int

	// The wall-clock running time of the program.
	Elapsed time.Duration
}

// TimingLine returns the line reporting the running time of the program.
func (rr *RunReport) TimingLine() string {
	return fmt.Sprintf("RomaPyRs Execution Time: %.6fs", rr.Elapsed.Seconds())
}

// Harness is responsible for materializing a program as a cargo crate in a
// scratch directory, building it, and optionally running the produced
// executable.  The scratch directory never outlives a call to Run.
type Harness struct {
	// The path or name of the cargo executable.
	Cargo string

	// The directory scratch directories are created in.  Empty means the
	// default temporary directory.
	ScratchRoot string

	// The time limit for running the built program.  Zero means no limit.
	Timeout time.Duration

	// The cargo profile to build with.  Empty means the release profile.
	Profile string

	// Called once the build has succeeded, right before the program is run.
	BeforeRun func()
}

// NewHarness creates a harness using `cargo` from the PATH, the release
// profile, and the default time limit.
func NewHarness() *Harness {
	return &Harness{
		Cargo:   "cargo",
		Timeout: DefaultTimeout,
		Profile: ReleaseProfile,
	}
}

// Run builds the program and runs it if execute is set.  The build honours
// ctx but has no time limit of its own.  If the program exits with a non-zero
// status, the report is returned along with an `*ExecutionFailureError`.
func (h *Harness) Run(ctx context.Context, prog *generate.Program, execute bool) (*RunReport, error) {
	dir, err := os.MkdirTemp(h.ScratchRoot, "pyrs-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := writeCrate(dir, prog); err != nil {
		return nil, err
	}

	rr := &RunReport{}

	rr.BuildOutput, err = h.build(ctx, dir)
	if err != nil {
		return nil, err
	}

	if !execute {
		return rr, nil
	}

	return rr, h.execute(ctx, dir, rr)
}

// writeCrate writes the manifest and the program source into dir.
func writeCrate(dir string, prog *generate.Program) error {
	manifest, err := NewManifest().Encode()
	if err != nil {
		return fmt.Errorf("failed to encode cargo manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), manifest, 0644); err != nil {
		return fmt.Errorf("failed to write cargo manifest: %w", err)
	}

	srcDir := filepath.Join(dir, "src")
	if err := os.Mkdir(srcDir, 0755); err != nil {
		return fmt.Errorf("failed to create source directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(srcDir, "main.rs"), []byte(prog.Source), 0644); err != nil {
		return fmt.Errorf("failed to write program source: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// profileArgs returns the cargo arguments selecting the profile of h along
// with the target subdirectory the profile builds into.
func (h *Harness) profileArgs() ([]string, string) {
	switch h.Profile {
	case "", ReleaseProfile:
		return []string{"--release"}, ReleaseProfile
	case "dev", "debug":
		return nil, "debug"
	default:
		return []string{"--profile", h.Profile}, h.Profile
	}
}

// build runs cargo over the crate in dir and returns its combined output.
func (h *Harness) build(ctx context.Context, dir string) (string, error) {
	profArgs, _ := h.profileArgs()

	args := append([]string{"build"}, profArgs...)
	args = append(args, "--manifest-path", filepath.Join(dir, "Cargo.toml"))

	cargo := exec.CommandContext(ctx, h.cargo(), args...)
	cargo.Dir = dir

	out, err := cargo.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// cargo ran but the crate did not build.
			return string(out), &BuildFailureError{Output: string(out)}
		}

		return string(out), fmt.Errorf("failed to run cargo: %w", err)
	}

	return string(out), nil
}

func (h *Harness) cargo() string {
	if h.Cargo == "" {
		return "cargo"
	}

	return h.Cargo
}

// execute runs the built executable of the crate in dir and fills in rr.
func (h *Harness) execute(ctx context.Context, dir string, rr *RunReport) error {
	if h.BeforeRun != nil {
		h.BeforeRun()
	}

	_, targetDir := h.profileArgs()
	binPath := filepath.Join(dir, "target", targetDir, common.CrateName)

	runCtx := ctx
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	prog := exec.CommandContext(runCtx, binPath)
	prog.Dir = dir
	prog.Stdout = stdout
	prog.Stderr = stderr
	prog.WaitDelay = killGrace
	setProcessGroup(prog)
	prog.Cancel = func() error {
		return killProcessGroup(prog)
	}

	start := time.Now()
	err := prog.Run()
	rr.Elapsed = time.Since(start).Round(time.Microsecond)

	rr.Executed = true
	rr.Stdout = stdout.String()
	rr.Stderr = stderr.String()
	rr.ExitCode = prog.ProcessState.ExitCode()

	if ctx.Err() != nil {
		return fmt.Errorf("program run cancelled: %w", ctx.Err())
	} else if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &ExecutionTimeoutError{Timeout: h.Timeout}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecutionFailureError{ExitCode: exitErr.ExitCode()}
		}

		return fmt.Errorf("failed to run program: %w", err)
	}

	return nil
}
