package stage

import (
	"context"
	"fmt"

	"codesmith/internal/exemplar"
	"codesmith/internal/llm"
	"codesmith/internal/logging"
)

// Fields maps field names to their string values, on both sides of an
// invocation.
type Fields map[string]string

// Stage is one primed transformer. Priming happens once in New; after
// that a Stage is read-only and safe to share across runs.
type Stage struct {
	spec      Spec
	client    llm.Client
	exemplars []exemplar.Example
	fewShot   string
}

// New primes a stage against the bank. Only records carrying every
// declared input and output field become exemplars; the rendered
// few-shot block is fixed here and reused verbatim on every invocation.
func New(spec Spec, bank exemplar.Bank, client llm.Client) (*Stage, error) {
	if spec.Name == "" || len(spec.Inputs) == 0 || len(spec.Outputs) == 0 {
		return nil, fmt.Errorf("invalid stage spec: name and field lists required")
	}
	if client == nil {
		return nil, fmt.Errorf("stage %s: nil LLM client", spec.Name)
	}
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("stage %s: %w", spec.Name, err)
	}

	s := &Stage{
		spec:   spec,
		client: client,
	}

	for _, ex := range bank {
		if exampleCarries(ex, spec) {
			s.exemplars = append(s.exemplars, ex)
		}
	}
	s.fewShot = renderFewShot(s.exemplars, spec)

	logging.StageDebug("primed %s with %d/%d exemplars", spec.Name, len(s.exemplars), len(bank))
	return s, nil
}

// exampleCarries reports whether the record has a non-empty value for
// every field the spec declares.
func exampleCarries(ex exemplar.Example, spec Spec) bool {
	for _, name := range append(append([]string{}, spec.Inputs...), spec.Outputs...) {
		val, ok := ex.Field(name)
		if !ok || val == "" {
			return false
		}
	}
	return true
}

// Name returns the spec name.
func (s *Stage) Name() string {
	return s.spec.Name
}

// Invoke runs one transformation. It performs no retries of its own:
// endpoint-level backoff lives in the client, and anything still
// failing here propagates to the caller.
func (s *Stage) Invoke(ctx context.Context, in Fields) (Fields, error) {
	for _, name := range s.spec.Inputs {
		if in[name] == "" {
			return nil, fmt.Errorf("stage %s: missing input field %q", s.spec.Name, name)
		}
	}

	timer := logging.StartTimer(logging.CategoryStage, s.spec.Name)
	defer timer.Stop()

	system := buildSystemPrompt(s.spec)
	user := buildUserPrompt(s.spec, s.fewShot, in)

	raw, err := s.client.CompleteWithSystem(ctx, system, user)
	if err != nil {
		logging.StageError("%s: completion failed: %v", s.spec.Name, err)
		return nil, fmt.Errorf("stage %s: %w", s.spec.Name, err)
	}

	out, err := parseResponse(raw, s.spec.Outputs)
	if err != nil {
		logging.StageError("%s: %v", s.spec.Name, err)
		return nil, fmt.Errorf("stage %s: %w", s.spec.Name, err)
	}

	return out, nil
}
