package stage

import (
	"fmt"
	"regexp"
	"strings"

	"codesmith/internal/exemplar"
)

// fieldMarkerRe matches the section marker lines that delimit fields in
// prompts and responses.
var fieldMarkerRe = regexp.MustCompile(`^---\s*FIELD:\s*([A-Za-z0-9_]+)\s*---\s*$`)

func fieldMarker(name string) string {
	return fmt.Sprintf("--- FIELD: %s ---", name)
}

// buildSystemPrompt frames the transformation and pins the response
// format so the output fields can be parsed back out.
func buildSystemPrompt(spec Spec) string {
	var b strings.Builder
	b.WriteString(spec.Instruction)
	b.WriteString("\n\nRespond with exactly one section per output field, in order")
	b.WriteString(", each introduced by its marker line:\n")
	for _, name := range spec.Outputs {
		b.WriteString(fieldMarker(name))
		b.WriteString("\n<")
		b.WriteString(name)
		b.WriteString(">\n")
	}
	b.WriteString("\nWrite nothing outside the sections and do not wrap section bodies in code fences.")
	return b.String()
}

// renderFewShot renders the primed exemplars once, input fields then
// output fields, in the same marker format the response must use.
func renderFewShot(exemplars []exemplar.Example, spec Spec) string {
	if len(exemplars) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ex := range exemplars {
		fmt.Fprintf(&b, "--- EXAMPLE %d ---\n", i+1)
		for _, name := range spec.Inputs {
			val, _ := ex.Field(name)
			b.WriteString(fieldMarker(name))
			b.WriteString("\n")
			b.WriteString(val)
			b.WriteString("\n")
		}
		for _, name := range spec.Outputs {
			val, _ := ex.Field(name)
			b.WriteString(fieldMarker(name))
			b.WriteString("\n")
			b.WriteString(val)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// buildUserPrompt assembles exemplars plus the live input fields.
func buildUserPrompt(spec Spec, fewShot string, in Fields) string {
	var b strings.Builder
	if fewShot != "" {
		b.WriteString(fewShot)
	}
	b.WriteString("--- INPUT ---\n")
	for _, name := range spec.Inputs {
		b.WriteString(fieldMarker(name))
		b.WriteString("\n")
		b.WriteString(in[name])
		b.WriteString("\n")
	}
	return b.String()
}

// parseResponse splits the completion into its labeled sections and
// checks that every declared output field arrived non-empty. Text
// before the first marker (model preamble) is dropped; unknown
// sections are ignored.
func parseResponse(raw string, outputs []string) (Fields, error) {
	sections := make(Fields)

	var current string
	var body []string
	flush := func() {
		if current != "" {
			sections[current] = stripFence(strings.Join(body, "\n"))
		}
		body = body[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := fieldMarkerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			current = m[1]
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()

	out := make(Fields, len(outputs))
	for _, name := range outputs {
		val, ok := sections[name]
		if !ok || val == "" {
			return nil, fmt.Errorf("malformed response: missing output field %q", name)
		}
		out[name] = val
	}
	return out, nil
}

// stripFence removes a surrounding markdown code fence, if present.
// Models add them despite instructions; the artifacts must stay raw
// source text.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return ""
	}
	trimmed = trimmed[idx+1:]

	if end := strings.LastIndex(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}
