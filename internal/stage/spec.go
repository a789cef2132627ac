// Package stage implements the LLM-backed text-to-text transformers the
// pipeline sequences. There is a single Stage type; the four pipeline
// stages are the same machinery under different field contracts.
package stage

// Spec declares one stage's contract: the fields it consumes, the
// fields it must produce, and the instruction framing the transformation.
type Spec struct {
	Name        string
	Instruction string
	Inputs      []string
	Outputs     []string
}

// The four stage contracts. Signature, code, and test synthesis find
// few-shot exemplars in the bank; repair's input fields exist in no
// bank record, so it always primes to zero exemplars and runs zero-shot.
var (
	SignatureSpec = Spec{
		Name: "signature_synthesis",
		Instruction: "You write Go code signatures. Given a task, produce the declaration shape " +
			"a solution would have: the function signature, plus any supporting type declarations " +
			"and their method signatures. Do not write function bodies.",
		Inputs:  []string{"task"},
		Outputs: []string{"code_signature"},
	}

	CodeSpec = Spec{
		Name: "code_synthesis",
		Instruction: "You write Go implementations. Given a task and its code signature, produce a " +
			"complete working implementation as top-level Go declarations matching the signature " +
			"exactly. Import only standard library packages, and only when needed.",
		Inputs:  []string{"task", "code_signature"},
		Outputs: []string{"code"},
	}

	TestsSpec = Spec{
		Name: "test_synthesis",
		Instruction: "You write Go test snippets. Given a task and its code signature, produce three " +
			"independent test snippets: two nominal cases and one edge case. Each snippet is a block " +
			"of plain Go statements that calls only what the signature declares and panics with a " +
			"descriptive message when the expectation fails.",
		Inputs:  []string{"task", "code_signature"},
		Outputs: []string{"test_1", "test_2", "edge_case_test_1"},
	}

	RepairSpec = Spec{
		Name: "code_repair",
		Instruction: "You fix broken Go code. Given the original task, the current implementation, " +
			"the test that failed (or the marker \"main code\" when the implementation itself failed " +
			"to run), and the error message, produce a corrected implementation. Return the full " +
			"replacement, keeping every declaration the tests rely on.",
		Inputs:  []string{"task", "old_code", "failed_test", "error_message"},
		Outputs: []string{"fixed_code"},
	}
)
