// Package exemplar holds the few-shot example bank that primes the
// generation stages. Examples are immutable once loaded; the bank is
// shared read-only across every pipeline run.
package exemplar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Example is one training tuple: a task with its known-good signature,
// implementation, and tests.
type Example struct {
	Task          string `yaml:"task"`
	CodeSignature string `yaml:"code_signature"`
	Code          string `yaml:"code"`
	Test1         string `yaml:"test_1"`
	Test2         string `yaml:"test_2"`
	EdgeCaseTest1 string `yaml:"edge_case_test_1"`
}

// CoreFields lists the six field names every bank record must carry.
var CoreFields = []string{"task", "code_signature", "code", "test_1", "test_2", "edge_case_test_1"}

// Field returns the named field's value. The bool reports whether the
// name is a known field at all.
func (e Example) Field(name string) (string, bool) {
	switch name {
	case "task":
		return e.Task, true
	case "code_signature":
		return e.CodeSignature, true
	case "code":
		return e.Code, true
	case "test_1":
		return e.Test1, true
	case "test_2":
		return e.Test2, true
	case "edge_case_test_1":
		return e.EdgeCaseTest1, true
	default:
		return "", false
	}
}

// Bank is an ordered sequence of examples.
type Bank []Example

// Load reads a YAML bank file (a list of records) and validates it.
func Load(path string) (Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read example bank: %w", err)
	}

	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse example bank: %w", err)
	}

	if err := bank.Validate(); err != nil {
		return nil, err
	}

	return bank, nil
}

// Validate checks that every record carries every core field. A record
// with a missing field would prime stages with holes, so this is fatal
// before any stage is built. An empty bank passes here; emptiness is
// the pipeline constructor's decision.
func (b Bank) Validate() error {
	for i, ex := range b {
		for _, name := range CoreFields {
			val, _ := ex.Field(name)
			if val == "" {
				return fmt.Errorf("example %d: field %q is empty", i, name)
			}
		}
	}
	return nil
}
