// Package sandbox evaluates generated Go source inside an embedded
// yaegi interpreter. The orchestrator never evaluates candidate text in
// its own context: every run gets a fresh interpreter, an import
// allowlist, a source size cap, and a deadline.
package sandbox

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"codesmith/internal/config"
	"codesmith/internal/logging"
)

// DefaultAllowedImports is the import allowlist used when the config
// does not name one. Pure computation packages only: nothing that
// reaches the filesystem, network, or process table.
var DefaultAllowedImports = []string{
	"errors",
	"fmt",
	"math",
	"sort",
	"strconv",
	"strings",
	"unicode",
}

const defaultMaxSourceBytes = 100 * 1024

// Interpreter runs snippets of generated Go. It holds no interpreter
// state itself; each Run builds a fresh one so nothing leaks between
// candidate programs.
type Interpreter struct {
	timeout  time.Duration
	maxBytes int
	allowed  map[string]bool
}

// New builds an Interpreter from the sandbox config. An empty allowlist
// falls back to DefaultAllowedImports.
func New(cfg config.SandboxConfig, timeout time.Duration) *Interpreter {
	maxBytes := cfg.MaxSourceBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxSourceBytes
	}

	imports := cfg.AllowedImports
	if len(imports) == 0 {
		imports = DefaultAllowedImports
	}
	allowed := make(map[string]bool, len(imports))
	for _, pkg := range imports {
		allowed[pkg] = true
	}

	return &Interpreter{
		timeout:  timeout,
		maxBytes: maxBytes,
		allowed:  allowed,
	}
}

// Run evaluates source and reports whether it executed cleanly. The
// source is top-level declarations and bare statements in interpreter
// form, not a full package. Parse failures, runtime panics, and
// disallowed imports all come back as ordinary errors; the error text
// is what the caller feeds back into repair.
func (it *Interpreter) Run(ctx context.Context, source string) error {
	if len(source) > it.maxBytes {
		return fmt.Errorf("source too large: %d bytes (limit %d)", len(source), it.maxBytes)
	}
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("empty source")
	}

	if err := it.screenImports(source); err != nil {
		logging.SandboxError("import screening rejected source: %v", err)
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("execution aborted: %w", err)
	}
	// Always bound the single evaluation, even when the caller carries a
	// longer run-wide deadline.
	if it.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, it.timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategorySandbox, "run")
	defer timer.Stop()
	logging.SandboxDebug("evaluating %d bytes", len(source))

	// Fresh interpreter per run. Declarations from one candidate must
	// never shadow or satisfy the next.
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("loading interpreter stdlib: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("runtime panic: %v", r)
			}
		}()
		_, err := i.Eval(source)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			logging.SandboxDebug("evaluation failed: %v", err)
		}
		return err
	case <-ctx.Done():
		// The evaluation goroutine cannot be killed; it is abandoned
		// with its buffered channel and the interpreter it owns.
		logging.SandboxError("evaluation abandoned: %v", ctx.Err())
		return fmt.Errorf("execution timed out: %w", ctx.Err())
	}
}

// screenImports parses just the import clause of the source and rejects
// any package outside the allowlist. The source is interpreter-form, so
// a package clause is prepended when missing; ImportsOnly parsing stops
// before the bare statements that would not survive a full parse.
func (it *Interpreter) screenImports(source string) error {
	src := source
	if !strings.HasPrefix(strings.TrimSpace(src), "package ") {
		src = "package main\n" + src
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "candidate.go", src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("import screening: %w", err)
	}

	for _, imp := range f.Imports {
		pkg := strings.Trim(imp.Path.Value, `"`)
		if !it.allowed[pkg] {
			return fmt.Errorf("disallowed import %q (allowed: %s)", pkg, it.allowedList())
		}
	}
	return nil
}

func (it *Interpreter) allowedList() string {
	pkgs := make([]string, 0, len(it.allowed))
	for pkg := range it.allowed {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return strings.Join(pkgs, ", ")
}
