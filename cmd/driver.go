// Package cmd is the top-level "driver" package for pyrs: it contains all the
// functionality for parsing command-line arguments, loading configuration, and
// running the various phases of transpilation.
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"pyrs/ast"
	"pyrs/config"
	"pyrs/generate"
	"pyrs/lower"
	"pyrs/optimize"
	"pyrs/report"
	"pyrs/resolve"
	"pyrs/syntax"
	"pyrs/toolchain"
	"pyrs/typing"
)

// Transpiler represents the overall state and configuration of transpiling a
// single source file.
type Transpiler struct {
	// The path to the source file as given by the user and its absolute form.
	srcPath, absPath string

	cfg *config.Config

	// Whether the built program should be run.
	run bool

	// The path to write the generated source to.  Empty if none was given.
	emitPath string

	// The optimization requests given on the command line.
	requests optimize.Supplied

	unit     *ast.SourceUnit
	resolver *resolve.Resolver
	inferer  typing.Inferencer
	profile  *optimize.Profile
	funcs    []*lower.LoweredFunc
	prog     *generate.Program
}

// NewTranspiler creates a new transpiler for the source file at srcPath.
func NewTranspiler(srcPath string, cfg *config.Config) *Transpiler {
	absPath, err := filepath.Abs(srcPath)
	if err != nil {
		absPath = srcPath
	}

	return &Transpiler{
		srcPath:  srcPath,
		absPath:  absPath,
		cfg:      cfg,
		requests: optimize.Supplied{},
	}
}

// Transpile runs every phase of transpilation in order and returns the exit
// status of the run.  Each phase only runs if the ones before it succeeded.
func (t *Transpiler) Transpile(ctx context.Context) int {
	defer func() {
		if x := recover(); x != nil {
			report.ReportICE("%v", x)
		}
	}()

	report.ReportHeader(t.srcPath)

	if !t.parse() || !t.analyze() || !t.lower() || !t.emit() {
		return 1
	}

	return t.build(ctx)
}

// -----------------------------------------------------------------------------

// parse parses the source file.
func (t *Transpiler) parse() bool {
	report.ReportBeginPhase("Parsing")

	unit, err := syntax.ParseFile(t.srcPath)
	if err != nil {
		t.reportError(err)
		return false
	}

	t.unit = unit
	return true
}

// analyze resolves the imports of the source file, infers the type of each
// function, and decides which optimizations apply to them.
func (t *Transpiler) analyze() bool {
	report.ReportBeginPhase("Analyzing")

	t.resolver = resolve.NewResolver()
	t.resolver.ResolveUnit(t.unit)

	for _, dir := range t.resolver.Dropped() {
		report.ReportDebug("import", "dropped import of `%s` at %s", dir.Module, dir.Span())
	}

	t.inferer = typing.NewFixed(t.cfg.NumericType)

	supplied := optimize.DecoratorProfile(t.unit).Merge(t.cfg.Functions).Merge(t.requests)
	for _, name := range supplied.Names() {
		if _, ok := t.unit.Func(name); !ok {
			report.ReportWarning("optimize", "no function named `%s`: optimization request ignored", name)
		}
	}

	t.profile = optimize.NewAnalyzer(t.cfg.MemoStrategy, t.inferer).Analyze(t.unit, supplied)

	for _, entry := range t.profile.Entries() {
		report.ReportDebug(
			"optimize",
			"%s: memoize=%t (%s), parallel=%t (%s)",
			entry.Name,
			entry.Memoize.Enabled, entry.Memoize.Reason,
			entry.Parallel.Enabled, entry.Parallel.Reason,
		)
	}

	return true
}

// lower lowers every function of the source file.  All unsupported constructs
// are reported, not just the first.
func (t *Transpiler) lower() bool {
	report.ReportBeginPhase("Lowering")

	env := lower.NewEnv(t.unit)
	for _, fd := range t.unit.Funcs() {
		lf, err := lower.LowerFunc(env, fd, t.inferer.Infer(fd), t.profile.Flags(fd.Name))
		if err != nil {
			t.reportError(err)
			continue
		}

		t.funcs = append(t.funcs, lf)
	}

	return !report.AnyErrors()
}

// emit assembles the generated program and writes it out if requested.
func (t *Transpiler) emit() bool {
	report.ReportBeginPhase("Emitting")

	prog, err := generate.Emit(
		t.resolver.Imports(),
		t.funcs,
		generate.EntryPoint{Func: t.cfg.MainFunc, Arg: t.cfg.EntryArg},
	)
	if err != nil {
		t.reportError(err)
		return false
	}

	t.prog = prog
	report.ReportDebug("generate", "generated source:\n%s", prog.Source)

	if t.emitPath != "" {
		if err := os.WriteFile(t.emitPath, []byte(prog.Source), 0644); err != nil {
			report.ReportStdError(t.emitPath, err)
			return false
		}
	}

	return true
}

// build builds the generated program and runs it if requested.
func (t *Transpiler) build(ctx context.Context) int {
	report.ReportBeginPhase("Building")

	h := &toolchain.Harness{
		Cargo:   t.cfg.Cargo,
		Timeout: t.cfg.Timeout,
		Profile: t.cfg.Profile,
		BeforeRun: func() {
			report.ReportBeginPhase("Running")
		},
	}

	rr, err := h.Run(ctx, t.prog, t.run)

	var execErr *toolchain.ExecutionFailureError
	if err != nil && !errors.As(err, &execErr) {
		t.reportError(err)
		return 1
	}

	report.ReportEndPhase(err == nil)
	report.ReportDebug("cargo", "%s", rr.BuildOutput)

	if rr.Executed {
		report.ReportOutput(rr.Stdout)

		if rr.Stderr != "" {
			report.ReportWarning("stderr", "%s", rr.Stderr)
		}

		if execErr != nil {
			report.ReportWarning("run", "%s", execErr)
		}

		report.ReportOutput(rr.TimingLine() + "\n")
	}

	return 0
}

// reportError reports an error of any phase.  Errors that carry a position in
// the source file are reported against it.
func (t *Transpiler) reportError(err error) {
	var lce *report.LocalCompileError
	var uce *lower.UnsupportedConstructError

	switch {
	case errors.As(err, &lce):
		report.ReportCompileError(t.absPath, t.srcPath, lce.Span, "%s", lce.Message)
	case errors.As(err, &uce):
		report.ReportCompileError(t.absPath, t.srcPath, uce.Span, "unsupported construct in `%s`: %s", uce.Func, uce.Construct)
	default:
		report.ReportStdError(t.srcPath, err)
	}
}
