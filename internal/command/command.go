package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Action identifies the infrastructure operation a command performs.
// The set is closed; anything else fails validation.
type Action string

const (
	ActionCreateVM     Action = "create_vm"
	ActionDeleteVM     Action = "delete_vm"
	ActionResizeVM     Action = "resize_vm"
	ActionCreateVolume Action = "create_volume"
	ActionAddStorage   Action = "add_storage"
)

// Actions returns every accepted action in a stable order.
func Actions() []Action {
	return []Action{
		ActionCreateVM,
		ActionDeleteVM,
		ActionResizeVM,
		ActionCreateVolume,
		ActionAddStorage,
	}
}

// Valid reports whether a is one of the accepted actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreateVM, ActionDeleteVM, ActionResizeVM, ActionCreateVolume, ActionAddStorage:
		return true
	}
	return false
}

// Defaults filled in before validation when the caller left the field empty.
const (
	DefaultFlavor = "medium"
	DefaultImage  = "ubuntu-24.04"
)

// Flavors returns the built-in size tokens. Provider-specific flavor
// strings are also accepted; this list exists for interpreters that map
// loose size words onto a canonical token.
func Flavors() []string {
	return []string{"small", "medium", "large", "xlarge"}
}

// Raw carries decoded, not-yet-validated command fields, e.g. straight
// out of a model response or a pattern rule.
type Raw struct {
	Action string `json:"action"`
	Name   string `json:"name"`
	Flavor string `json:"flavor,omitempty"`
	Image  string `json:"image,omitempty"`
	SizeGB *int   `json:"size_gb,omitempty"`
}

// Command is a schema-valid infrastructure command. Build one through
// Validate; a Command is never mutated after construction.
type Command struct {
	Action Action `json:"action"`
	Name   string `json:"name"`
	Flavor string `json:"flavor"`
	Image  string `json:"image"`
	SizeGB *int   `json:"size_gb,omitempty"`
}

// Summary renders a compact one-line description for logs and prompts.
func (c Command) Summary() string {
	var b strings.Builder
	b.WriteString(string(c.Action))
	fmt.Fprintf(&b, " name=%s flavor=%s image=%s", c.Name, c.Flavor, c.Image)
	if c.SizeGB != nil {
		fmt.Fprintf(&b, " size_gb=%d", *c.SizeGB)
	}
	return b.String()
}

// ValidationError reports the first field that failed schema validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command: field %q (%q): %s", e.Field, e.Value, e.Reason)
}

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_-]*[A-Za-z0-9])?$`)
	flavorPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

const maxNameLen = 63

// Validate applies defaults to raw and checks every field, returning the
// resulting Command or a *ValidationError for the first offending field.
// Defaults are applied before any check runs, so an empty flavor or image
// can never fail validation.
func Validate(raw Raw) (Command, error) {
	action := Action(strings.ToLower(strings.TrimSpace(raw.Action)))
	name := strings.TrimSpace(raw.Name)
	flavor := strings.TrimSpace(raw.Flavor)
	if flavor == "" {
		flavor = DefaultFlavor
	}
	image := strings.TrimSpace(raw.Image)
	if image == "" {
		image = DefaultImage
	}

	if !action.Valid() {
		return Command{}, &ValidationError{Field: "action", Value: raw.Action, Reason: "not a recognized action"}
	}
	if name == "" {
		return Command{}, &ValidationError{Field: "name", Value: raw.Name, Reason: "required"}
	}
	if len(name) > maxNameLen {
		return Command{}, &ValidationError{Field: "name", Value: name, Reason: fmt.Sprintf("longer than %d characters", maxNameLen)}
	}
	if !namePattern.MatchString(name) {
		return Command{}, &ValidationError{Field: "name", Value: name, Reason: "must be alphanumeric with interior '-' or '_'"}
	}
	if !flavorPattern.MatchString(flavor) {
		return Command{}, &ValidationError{Field: "flavor", Value: flavor, Reason: "not a usable flavor token"}
	}
	if raw.SizeGB != nil && *raw.SizeGB <= 0 {
		return Command{}, &ValidationError{Field: "size_gb", Value: strconv.Itoa(*raw.SizeGB), Reason: "must be positive"}
	}

	cmd := Command{
		Action: action,
		Name:   name,
		Flavor: flavor,
		Image:  image,
	}
	if raw.SizeGB != nil {
		v := *raw.SizeGB
		cmd.SizeGB = &v
	}
	return cmd, nil
}
