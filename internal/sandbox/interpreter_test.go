package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"codesmith/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	return New(config.SandboxConfig{}, 10*time.Second)
}

func TestRun_CleanProgram(t *testing.T) {
	it := newInterpreter(t)

	source := `func double(n int) int {
	return n * 2
}

if double(21) != 42 {
	panic("expected 42")
}`

	if err := it.Run(context.Background(), source); err != nil {
		t.Errorf("Run error: %v", err)
	}
}

func TestRun_AllowedImport(t *testing.T) {
	it := newInterpreter(t)

	source := `import "strings"

func shout(s string) string {
	return strings.ToUpper(s)
}

if shout("go") != "GO" {
	panic("expected GO")
}`

	if err := it.Run(context.Background(), source); err != nil {
		t.Errorf("Run error: %v", err)
	}
}

func TestRun_SyntaxError(t *testing.T) {
	it := newInterpreter(t)

	err := it.Run(context.Background(), "func broken( {")
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestRun_FailingAssertion(t *testing.T) {
	it := newInterpreter(t)

	source := `func double(n int) int {
	return n + 2
}

if double(21) != 42 {
	panic("double is wrong")
}`

	err := it.Run(context.Background(), source)
	if err == nil {
		t.Fatal("expected the panicking assertion to surface as an error")
	}
	if !strings.Contains(err.Error(), "double is wrong") {
		t.Errorf("error should carry the panic message, got: %v", err)
	}
}

func TestRun_DisallowedImports(t *testing.T) {
	it := newInterpreter(t)

	tests := []struct {
		name   string
		source string
	}{
		{"os", "import \"os\"\n\nos.Exit(1)"},
		{"net/http", "import \"net/http\"\n\n_ = http.DefaultClient"},
		{"exec in block", "import (\n\t\"fmt\"\n\t\"os/exec\"\n)\n\nfmt.Println(exec.Command)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := it.Run(context.Background(), tt.source)
			if err == nil {
				t.Fatal("expected the import to be rejected")
			}
			if !strings.Contains(err.Error(), "disallowed import") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun_ConfiguredAllowlist(t *testing.T) {
	it := New(config.SandboxConfig{AllowedImports: []string{"strings"}}, 10*time.Second)

	err := it.Run(context.Background(), "import \"fmt\"\n\nfmt.Println(\"hi\")")
	if err == nil || !strings.Contains(err.Error(), `disallowed import "fmt"`) {
		t.Errorf("configured allowlist should reject fmt, got: %v", err)
	}
}

func TestRun_SizeCap(t *testing.T) {
	it := New(config.SandboxConfig{MaxSourceBytes: 16}, 10*time.Second)

	err := it.Run(context.Background(), "x := 1\n_ = x\n// padding padding")
	if err == nil || !strings.Contains(err.Error(), "source too large") {
		t.Errorf("expected the size cap to trip, got: %v", err)
	}
}

func TestRun_EmptySource(t *testing.T) {
	it := newInterpreter(t)

	if err := it.Run(context.Background(), "   \n\t"); err == nil {
		t.Error("expected an error for empty source")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	it := newInterpreter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := it.Run(ctx, "x := 1\n_ = x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestRun_FreshInterpreterPerRun(t *testing.T) {
	it := newInterpreter(t)

	define := `func marker() int {
	return 7
}

if marker() != 7 {
	panic("expected 7")
}`
	if err := it.Run(context.Background(), define); err != nil {
		t.Fatalf("defining run error: %v", err)
	}

	// A second run must not see declarations from the first.
	if err := it.Run(context.Background(), "if marker() != 7 {\n\tpanic(\"unreachable\")\n}"); err == nil {
		t.Error("second run resolved a symbol defined by the first; interpreter state leaked")
	}
}

func TestRun_CodePlusTestSnippet(t *testing.T) {
	it := newInterpreter(t)

	code := `import "errors"

func safeDivide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}`
	test := `if _, err := safeDivide(1, 0); err == nil {
	panic("expected an error dividing by zero")
}`

	if err := it.Run(context.Background(), code+"\n\n"+test); err != nil {
		t.Errorf("Run error: %v", err)
	}
}
