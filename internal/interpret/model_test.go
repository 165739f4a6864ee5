package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"opsgate/internal/command"
	"opsgate/internal/llm"
)

func TestModelInterpretValidReply(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Reply = json.RawMessage(`{"action":"resize_vm","name":"web-server","flavor":"large"}`)
	m := NewModel(fake, 0, nil)

	cmd, err := m.Interpret(context.Background(), "make web-server bigger")
	require.NoError(t, err)
	require.Equal(t, command.ActionResizeVM, cmd.Action)
	require.Equal(t, "web-server", cmd.Name)
	require.Equal(t, "large", cmd.Flavor)
	require.Equal(t, command.DefaultImage, cmd.Image)
}

func TestModelInterpretStripsFences(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Reply = json.RawMessage("```json\n{\"action\":\"delete_vm\",\"name\":\"old\"}\n```")
	m := NewModel(fake, 0, nil)

	cmd, err := m.Interpret(context.Background(), "remove old")
	require.NoError(t, err)
	require.Equal(t, command.ActionDeleteVM, cmd.Action)
}

func TestModelInterpretUnwrapsQuotedReply(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Reply = json.RawMessage(`"{\"action\":\"create_volume\",\"name\":\"data-1\",\"size_gb\":20}"`)
	m := NewModel(fake, 0, nil)

	cmd, err := m.Interpret(context.Background(), "create a 20gb volume named data-1")
	require.NoError(t, err)
	require.Equal(t, command.ActionCreateVolume, cmd.Action)
	require.NotNil(t, cmd.SizeGB)
	require.Equal(t, 20, *cmd.SizeGB)
}

func TestModelInterpretTransportFailure(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Err = errors.New("connection refused")
	m := NewModel(fake, 0, nil)

	_, err := m.Interpret(context.Background(), "create vm named x")
	var unavail *UnavailableError
	require.ErrorAs(t, err, &unavail)
	require.Equal(t, fake.Name(), unavail.Backend)
}

func TestModelInterpretNonJSONReply(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Err = llm.ErrInvalidJSON
	m := NewModel(fake, 0, nil)

	_, err := m.Interpret(context.Background(), "create vm named x")
	var output *OutputError
	require.ErrorAs(t, err, &output)
}

func TestModelInterpretSchemaInvalidReplyKeepsRaw(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Reply = json.RawMessage(`{"action":"reboot_vm","name":"x"}`)
	m := NewModel(fake, 0, nil)

	_, err := m.Interpret(context.Background(), "reboot x")
	var output *OutputError
	require.ErrorAs(t, err, &output)
	require.JSONEq(t, `{"action":"reboot_vm","name":"x"}`, string(output.Raw))

	var verr *command.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "action", verr.Field)
}

func TestModelInterpretCallsExchangeHook(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Reply = json.RawMessage(`{"action":"create_vm","name":"n1"}`)
	m := NewModel(fake, 0, nil)

	var gotText string
	var gotRaw json.RawMessage
	m.OnExchange = func(_ context.Context, prompt, text string, raw json.RawMessage, err error) {
		require.Equal(t, InstructionPrompt(), prompt)
		require.NoError(t, err)
		gotText, gotRaw = text, raw
	}

	_, err := m.Interpret(context.Background(), "  create vm named n1  ")
	require.NoError(t, err)
	require.Equal(t, "create vm named n1", gotText)
	require.JSONEq(t, `{"action":"create_vm","name":"n1"}`, string(gotRaw))
}

func TestModelInterpretEmptyInput(t *testing.T) {
	m := NewModel(llm.NewFakeClient(), 0, nil)
	_, err := m.Interpret(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyInput)
}
