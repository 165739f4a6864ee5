package interpret

import (
	"bytes"
	"fmt"
	"strings"

	"opsgate/internal/command"
)

// promptField describes one output field in the instruction prompt.
type promptField struct {
	name        string
	typ         string
	required    bool
	description string
}

var outputFields = []promptField{
	{"action", "string", true, "one of the VOCABULARY actions, exactly as written"},
	{"name", "string", true, "resource name taken from the request"},
	{"flavor", "string", false, "size token; omit when the request names no size"},
	{"image", "string", false, "base image; omit unless the request names one"},
	{"size_gb", "integer", false, "storage size in GB; omit unless the request gives one"},
}

var promptRules = []string{
	"Use only the actions and flavor tokens listed under VOCABULARY.",
	"Copy the resource name from the request verbatim; never invent one.",
	"Omit optional fields the request says nothing about; defaults are applied downstream.",
	"Map loose size words (tiny, big, huge) onto the nearest flavor token.",
	"If the request asks for several operations, answer with the first one only.",
}

var promptExamples = []struct{ in, out string }{
	{
		`{"text": "Create medium VM named web-server"}`,
		`{"action": "create_vm", "name": "web-server", "flavor": "medium"}`,
	},
	{
		`{"text": "add 50GB storage to web-server"}`,
		`{"action": "add_storage", "name": "web-server", "size_gb": 50}`,
	},
	{
		`{"text": "delete vm old-batch-runner"}`,
		`{"action": "delete_vm", "name": "old-batch-runner"}`,
	},
}

var instructionPrompt = buildInstructionPrompt()

// InstructionPrompt returns the fixed instruction template sent with
// every interpretation request. The user text travels separately as
// input JSON; only the template is pinned here.
func InstructionPrompt() string { return instructionPrompt }

func buildInstructionPrompt() string {
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE",
		"Convert one operator request written in natural language into exactly one structured infrastructure command.")
	writeSection(&buf, "VOCABULARY", formatVocabulary())
	writeSection(&buf, "OUTPUT", formatFields(outputFields))
	writeSection(&buf, "RULES", formatList(promptRules))
	writeSection(&buf, "OUTPUT_FORMAT",
		"A single JSON object carrying the OUTPUT fields. No prose, no markdown fences.")
	writeSection(&buf, "EXAMPLES", formatPromptExamples())
	return strings.TrimSpace(buf.String()) + "\n"
}

func formatVocabulary() string {
	var buf strings.Builder
	buf.WriteString("actions:")
	for _, a := range command.Actions() {
		buf.WriteString(" " + string(a))
	}
	buf.WriteString("\nflavors:")
	for _, f := range command.Flavors() {
		buf.WriteString(" " + f)
	}
	return buf.String()
}

func formatFields(fields []promptField) string {
	var buf strings.Builder
	for _, f := range fields {
		req := "optional"
		if f.required {
			req = "required"
		}
		fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", f.name, f.typ, req, f.description)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatPromptExamples() string {
	var buf strings.Builder
	for i, ex := range promptExamples {
		fmt.Fprintf(&buf, "Example %d:\nINPUT:\n%s\nOUTPUT:\n%s\n\n", i+1, ex.in, ex.out)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintf(buf, "[%s]\n%s\n\n", title, body)
}
