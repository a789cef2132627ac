// Package pipeline sequences the four generation stages and the sandbox
// into the signature -> code+tests -> execute -> repair loop. One Run
// produces one code signature and exactly three tests; the tests are
// frozen once synthesized, so every repair must satisfy the original
// set rather than a regenerated one.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codesmith/internal/config"
	"codesmith/internal/exemplar"
	"codesmith/internal/llm"
	"codesmith/internal/logging"
	"codesmith/internal/stage"
)

// MainCodeArtifact is the failing-artifact identity used when the
// candidate implementation itself fails to execute, as opposed to one
// of the tests.
const MainCodeArtifact = "main code"

// State labels one phase of a run.
type State string

const (
	StateSignature    State = "SIGNATURE"
	StateCodeAndTests State = "CODE_AND_TESTS"
	StateRunCode      State = "RUN_CODE"
	StateRunTests     State = "RUN_TESTS"
	StateRepair       State = "REPAIR"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Transition records one state change and why it happened.
type Transition struct {
	From   State
	To     State
	Reason string
}

// TestCase is one synthesized test: its field name and its source text.
type TestCase struct {
	Name   string
	Source string
}

// Result carries everything a run produced, terminal or not. On error
// returns the Result is still populated with whatever existed when the
// run stopped.
type Result struct {
	Task        string
	Signature   string
	Code        string
	Tests       []TestCase
	Repairs     int
	State       State
	Transitions []Transition
	Duration    time.Duration
}

// Runner executes candidate source and reports success or an error
// whose text describes the failure.
type Runner interface {
	Run(ctx context.Context, source string) error
}

// Reporter receives intermediate artifacts and progress lines as the
// run produces them.
type Reporter interface {
	Artifact(name, content string)
	Progress(message string)
}

type nopReporter struct{}

func (nopReporter) Artifact(string, string) {}
func (nopReporter) Progress(string)         {}

// Pipeline is a primed, reusable generation loop. Stages and the bank
// are read-only after New; concurrent Runs would be safe but the
// intended use is sequential.
type Pipeline struct {
	signature  *stage.Stage
	code       *stage.Stage
	tests      *stage.Stage
	repair     *stage.Stage
	runner     Runner
	reporter   Reporter
	maxRepairs int
}

// New primes the four stages against the bank and wires the runner. An
// empty bank is construction-fatal.
func New(bank exemplar.Bank, client llm.Client, runner Runner, cfg config.PipelineConfig) (*Pipeline, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyExampleBank
	}
	if client == nil {
		return nil, fmt.Errorf("nil LLM client")
	}
	if runner == nil {
		return nil, fmt.Errorf("nil runner")
	}
	if cfg.MaxRepairAttempts < 0 {
		return nil, fmt.Errorf("negative MaxRepairAttempts: %d", cfg.MaxRepairAttempts)
	}

	p := &Pipeline{
		runner:     runner,
		reporter:   nopReporter{},
		maxRepairs: cfg.MaxRepairAttempts,
	}

	var err error
	for _, s := range []struct {
		dst  **stage.Stage
		spec stage.Spec
	}{
		{&p.signature, stage.SignatureSpec},
		{&p.code, stage.CodeSpec},
		{&p.tests, stage.TestsSpec},
		{&p.repair, stage.RepairSpec},
	} {
		if *s.dst, err = stage.New(s.spec, bank, client); err != nil {
			return nil, fmt.Errorf("priming %s: %w", s.spec.Name, err)
		}
	}

	logging.PipelineDebug("pipeline primed, max repair attempts %d", p.maxRepairs)
	return p, nil
}

// SetReporter installs an artifact/progress sink. Passing nil restores
// the no-op default.
func (p *Pipeline) SetReporter(r Reporter) {
	if r == nil {
		p.reporter = nopReporter{}
		return
	}
	p.reporter = r
}

// Task augmentations framing each stage's view of the raw task. Repair
// receives the task untouched.
func signatureTask(task string) string {
	return "Write the signature for a Go function doing the following " +
		"(if the task needs supporting types, include the type declarations and their methods): " + task
}

func codeTask(task string) string {
	return "Write " + task + " with the provided code signature"
}

func testsTask(task string) string {
	return "Generate unit tests for the following task with the provided code signature: " + task
}

// Run drives one task through the loop until DONE, FAILED, or
// cancellation. The candidate code is replaced wholesale on each
// repair, and validation always restarts from execution: previously
// passing tests run again against the new candidate.
func (p *Pipeline) Run(ctx context.Context, task string) (*Result, error) {
	if strings.TrimSpace(task) == "" {
		return nil, fmt.Errorf("empty task")
	}

	start := time.Now()
	res := &Result{Task: task, State: StateSignature}
	logging.Pipeline("run started: %s", task)

	transition := func(to State, reason string) {
		res.Transitions = append(res.Transitions, Transition{From: res.State, To: to, Reason: reason})
		logging.PipelineDebug("%s -> %s: %s", res.State, to, reason)
		res.State = to
	}
	fail := func(reason string, err error) (*Result, error) {
		transition(StateFailed, reason)
		res.Duration = time.Since(start)
		logging.PipelineError("run failed in %s: %v", reason, err)
		return res, err
	}

	var failArtifact, failDesc string

	for {
		if err := ctx.Err(); err != nil {
			return fail("cancelled", fmt.Errorf("run cancelled: %w", err))
		}

		switch res.State {
		case StateSignature:
			p.reporter.Progress("synthesizing signature")
			out, err := p.signature.Invoke(ctx, stage.Fields{"task": signatureTask(task)})
			if err != nil {
				return fail("signature synthesis failed", &GenerationError{Stage: p.signature.Name(), Err: err})
			}
			res.Signature = out["code_signature"]
			p.reporter.Artifact("code_signature", res.Signature)
			transition(StateCodeAndTests, "signature synthesized")

		case StateCodeAndTests:
			p.reporter.Progress("synthesizing code and tests")
			out, err := p.code.Invoke(ctx, stage.Fields{
				"task":           codeTask(task),
				"code_signature": res.Signature,
			})
			if err != nil {
				return fail("code synthesis failed", &GenerationError{Stage: p.code.Name(), Err: err})
			}
			res.Code = out["code"]
			p.reporter.Artifact("code", res.Code)

			tout, err := p.tests.Invoke(ctx, stage.Fields{
				"task":           testsTask(task),
				"code_signature": res.Signature,
			})
			if err != nil {
				return fail("test synthesis failed", &GenerationError{Stage: p.tests.Name(), Err: err})
			}
			res.Tests = make([]TestCase, 0, len(stage.TestsSpec.Outputs))
			for _, name := range stage.TestsSpec.Outputs {
				res.Tests = append(res.Tests, TestCase{Name: name, Source: tout[name]})
				p.reporter.Artifact(name, tout[name])
			}
			transition(StateRunCode, "code and tests synthesized")

		case StateRunCode:
			p.reporter.Progress("running candidate code")
			if err := p.runner.Run(ctx, res.Code); err != nil {
				if ctx.Err() != nil {
					return fail("cancelled", fmt.Errorf("run cancelled: %w", ctx.Err()))
				}
				failArtifact = MainCodeArtifact
				failDesc = err.Error()
				transition(StateRepair, "code execution failed")
				break
			}
			transition(StateRunTests, "code executed cleanly")

		case StateRunTests:
			// Fixed order, first failure short-circuits the rest.
			next := StateDone
			reason := "all tests passed"
			for _, tc := range res.Tests {
				p.reporter.Progress("running " + tc.Name)
				err := p.runner.Run(ctx, res.Code+"\n\n"+tc.Source)
				if err == nil {
					continue
				}
				if ctx.Err() != nil {
					return fail("cancelled", fmt.Errorf("run cancelled: %w", ctx.Err()))
				}
				failArtifact = tc.Source
				failDesc = err.Error()
				next = StateRepair
				reason = tc.Name + " failed"
				break
			}
			transition(next, reason)

		case StateRepair:
			if res.Repairs >= p.maxRepairs {
				err := &RepairExhaustedError{
					Attempts: res.Repairs,
					Artifact: failArtifact,
					LastErr:  failDesc,
				}
				return fail("repair attempts exhausted", err)
			}
			res.Repairs++
			p.reporter.Progress(fmt.Sprintf("repair attempt %d/%d", res.Repairs, p.maxRepairs))
			out, err := p.repair.Invoke(ctx, stage.Fields{
				"task":          task,
				"old_code":      res.Code,
				"failed_test":   failArtifact,
				"error_message": failDesc,
			})
			if err != nil {
				return fail("repair failed", &GenerationError{Stage: p.repair.Name(), Err: err})
			}
			res.Code = out["fixed_code"]
			p.reporter.Artifact("fixed_code", res.Code)
			transition(StateRunCode, fmt.Sprintf("repair attempt %d applied", res.Repairs))

		case StateDone:
			res.Duration = time.Since(start)
			logging.Pipeline("run done: %d repairs, %s", res.Repairs, res.Duration)
			return res, nil

		default:
			return fail("invalid state", fmt.Errorf("invalid state %q", res.State))
		}
	}
}
