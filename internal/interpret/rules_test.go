package interpret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"opsgate/internal/command"
)

func TestFallbackPhrases(t *testing.T) {
	cases := []struct {
		text   string
		action command.Action
		name   string
		flavor string
		size   int // 0 means absent
	}{
		{"Create medium VM named web-server", command.ActionCreateVM, "web-server", "medium", 0},
		{"create vm named db-1", command.ActionCreateVM, "db-1", command.DefaultFlavor, 0},
		{"create a huge vm called cruncher", command.ActionCreateVM, "cruncher", "xlarge", 0},
		{"create a c5.large vm named api-0", command.ActionCreateVM, "api-0", "c5.large", 0},
		{"Delete vm old-server", command.ActionDeleteVM, "old-server", command.DefaultFlavor, 0},
		{"delete the VM named temp-1", command.ActionDeleteVM, "temp-1", command.DefaultFlavor, 0},
		{"resize web-server to large", command.ActionResizeVM, "web-server", "large", 0},
		{"Resize the vm db-1 to big", command.ActionResizeVM, "db-1", "large", 0},
		{"create 100GB volume named data-1", command.ActionCreateVolume, "data-1", command.DefaultFlavor, 100},
		{"create a volume called scratch", command.ActionCreateVolume, "scratch", command.DefaultFlavor, 0},
		{"add 50GB storage to web-server", command.ActionAddStorage, "web-server", command.DefaultFlavor, 50},
		{"Add 8 gb of storage to the vm db-1", command.ActionAddStorage, "db-1", command.DefaultFlavor, 8},
	}
	f := NewFallback()
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			cmd, err := f.Interpret(tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.action, cmd.Action)
			require.Equal(t, tc.name, cmd.Name)
			require.Equal(t, tc.flavor, cmd.Flavor)
			require.Equal(t, command.DefaultImage, cmd.Image)
			if tc.size == 0 {
				require.Nil(t, cmd.SizeGB)
			} else {
				require.NotNil(t, cmd.SizeGB)
				require.Equal(t, tc.size, *cmd.SizeGB)
			}
		})
	}
}

func TestFallbackKeepsNameCase(t *testing.T) {
	f := NewFallback()
	cmd, err := f.Interpret("create vm named Web-Server")
	require.NoError(t, err)
	require.Equal(t, "Web-Server", cmd.Name)
}

func TestFallbackEmptyInput(t *testing.T) {
	f := NewFallback()
	_, err := f.Interpret("   \t ")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestFallbackNoMatch(t *testing.T) {
	f := NewFallback()
	_, err := f.Interpret("please make everything faster")
	var nm *NoMatchError
	require.ErrorAs(t, err, &nm)
	require.Equal(t, "please make everything faster", nm.Input)
}

func TestFallbackValidationStillApplies(t *testing.T) {
	f := NewFallback()
	_, err := f.Interpret("create vm named -bad-")
	var verr *command.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "name", verr.Field)
}
