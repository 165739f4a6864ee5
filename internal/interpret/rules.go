package interpret

import (
	"regexp"
	"strconv"
	"strings"

	"opsgate/internal/command"
)

// sizeWords maps loose size words from operator text onto canonical
// flavor tokens. Words not listed here pass through unchanged so that
// provider-specific flavors ("c5.large") keep working.
var sizeWords = map[string]string{
	"tiny":        "small",
	"small":       "small",
	"medium":      "medium",
	"big":         "large",
	"large":       "large",
	"huge":        "xlarge",
	"xlarge":      "xlarge",
	"x-large":     "xlarge",
	"extra-large": "xlarge",
}

func canonicalFlavor(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if f, ok := sizeWords[w]; ok {
		return f
	}
	return w
}

type rule struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) (command.Raw, error)
}

// Rules are tried in order; the first whose pattern matches the trimmed
// input wins. Matching is case-insensitive, captured names keep their
// case.
var rules = []rule{
	{
		name: "create-vm",
		re:   regexp.MustCompile(`(?i)^create\s+(?:a\s+|an\s+)?(?:([a-z0-9._-]+)\s+)?vm\s+(?:named|called)\s+(\S+)$`),
		build: func(m []string) (command.Raw, error) {
			return command.Raw{Action: "create_vm", Name: m[2], Flavor: canonicalFlavor(m[1])}, nil
		},
	},
	{
		name: "delete-vm",
		re:   regexp.MustCompile(`(?i)^delete\s+(?:the\s+)?vm\s+(?:named\s+|called\s+)?(\S+)$`),
		build: func(m []string) (command.Raw, error) {
			return command.Raw{Action: "delete_vm", Name: m[1]}, nil
		},
	},
	{
		name: "resize-vm",
		re:   regexp.MustCompile(`(?i)^resize\s+(?:the\s+)?(?:vm\s+)?(\S+)\s+to\s+([a-z0-9._-]+)$`),
		build: func(m []string) (command.Raw, error) {
			return command.Raw{Action: "resize_vm", Name: m[1], Flavor: canonicalFlavor(m[2])}, nil
		},
	},
	{
		name: "create-volume",
		re:   regexp.MustCompile(`(?i)^create\s+(?:a\s+)?(?:(\d+)\s*gb\s+)?volume\s+(?:named|called)\s+(\S+)$`),
		build: func(m []string) (command.Raw, error) {
			raw := command.Raw{Action: "create_volume", Name: m[2]}
			if m[1] != "" {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return command.Raw{}, err
				}
				raw.SizeGB = &n
			}
			return raw, nil
		},
	},
	{
		name: "add-storage",
		re:   regexp.MustCompile(`(?i)^add\s+(\d+)\s*gb\s+(?:of\s+)?storage\s+to\s+(?:the\s+)?(?:vm\s+)?(\S+)$`),
		build: func(m []string) (command.Raw, error) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return command.Raw{}, err
			}
			return command.Raw{Action: "add_storage", Name: m[2], SizeGB: &n}, nil
		},
	},
}

// Fallback converts operator text into commands with ordered pattern
// rules. It needs no network and always answers deterministically, which
// makes it the safety net behind the model interpreter.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

// Interpret matches text against the rule list and validates the result.
func (f *Fallback) Interpret(text string) (command.Command, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return command.Command{}, ErrEmptyInput
	}
	for _, r := range rules {
		m := r.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		raw, err := r.build(m)
		if err != nil {
			// e.g. a size literal too large for int; treat as no match
			continue
		}
		return command.Validate(raw)
	}
	return command.Command{}, &NoMatchError{Input: trimmed}
}
