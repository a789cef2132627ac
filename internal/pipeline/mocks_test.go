package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// --- fakeModel ---

// fakeModel answers stage invocations by recognizing each stage's
// output contract in the system prompt and returning scripted field
// sections.
type fakeModel struct {
	SignatureResp string
	CodeResp      string
	TestResps     [3]string
	FixResps      []string

	// State for verification
	SignatureCalls int
	CodeCalls      int
	TestCalls      int
	FixCalls       int
	FixPrompts     []string

	// When set, every call fails with this error.
	Err error
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		SignatureResp: "func nthFib(n int) int",
		CodeResp: `func nthFib(n int) int {
	if n <= 1 {
		return n
	}
	return nthFib(n-1) + nthFib(n-2)
}`,
		TestResps: [3]string{
			"if nthFib(1) != 1 {\n\tpanic(\"expected 1\")\n}",
			"if nthFib(10) != 55 {\n\tpanic(\"expected 55\")\n}",
			"if nthFib(0) != 0 {\n\tpanic(\"expected 0\")\n}",
		},
		FixResps: []string{"func nthFib(n int) int {\n\treturn n\n}"},
	}
}

func section(name, body string) string {
	return fmt.Sprintf("--- FIELD: %s ---\n%s\n", name, body)
}

func (f *fakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeModel) CompleteWithSystem(ctx context.Context, sys, user string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}

	switch {
	case strings.Contains(sys, "--- FIELD: test_1 ---"):
		f.TestCalls++
		return section("test_1", f.TestResps[0]) +
			section("test_2", f.TestResps[1]) +
			section("edge_case_test_1", f.TestResps[2]), nil

	case strings.Contains(sys, "--- FIELD: fixed_code ---"):
		f.FixCalls++
		f.FixPrompts = append(f.FixPrompts, user)
		if len(f.FixResps) == 0 {
			return "", fmt.Errorf("no fix scripted")
		}
		idx := f.FixCalls - 1
		if idx >= len(f.FixResps) {
			idx = len(f.FixResps) - 1
		}
		return section("fixed_code", f.FixResps[idx]), nil

	case strings.Contains(sys, "--- FIELD: code_signature ---"):
		f.SignatureCalls++
		return section("code_signature", f.SignatureResp), nil

	case strings.Contains(sys, "--- FIELD: code ---"):
		f.CodeCalls++
		return section("code", f.CodeResp), nil
	}

	return "", fmt.Errorf("unrecognized system prompt:\n%s", sys)
}

// --- fakeRunner ---

type fakeRunner struct {
	RunFunc func(ctx context.Context, source string) error

	// State for verification
	Sources []string
}

func (r *fakeRunner) Run(ctx context.Context, source string) error {
	r.Sources = append(r.Sources, source)
	if r.RunFunc != nil {
		return r.RunFunc(ctx, source)
	}
	return nil
}

// --- recordReporter ---

type recordReporter struct {
	ArtifactNames []string
	ProgressLines []string
}

func (r *recordReporter) Artifact(name, _ string) {
	r.ArtifactNames = append(r.ArtifactNames, name)
}

func (r *recordReporter) Progress(message string) {
	r.ProgressLines = append(r.ProgressLines, message)
}
