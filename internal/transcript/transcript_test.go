package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type captureArchive struct {
	saved []Exchange
	err   error
}

func (c *captureArchive) Save(_ context.Context, ex Exchange) error {
	c.saved = append(c.saved, ex)
	return c.err
}

func TestRecorderCapturesExchange(t *testing.T) {
	arc := &captureArchive{}
	hook := Recorder(arc, nil)

	hook(context.Background(), "PROMPT", "delete vm x", json.RawMessage(`{"action":"delete_vm"}`), nil)
	require.Len(t, arc.saved, 1)
	ex := arc.saved[0]
	require.NotEmpty(t, ex.ID)
	require.Equal(t, "PROMPT", ex.Prompt)
	require.Equal(t, "delete vm x", ex.Text)
	require.JSONEq(t, `{"action":"delete_vm"}`, string(ex.Reply))
	require.Empty(t, ex.Error)
	require.False(t, ex.At.IsZero())
}

func TestRecorderRecordsFailure(t *testing.T) {
	arc := &captureArchive{}
	hook := Recorder(arc, nil)

	hook(context.Background(), "PROMPT", "x", nil, errors.New("timeout"))
	require.Len(t, arc.saved, 1)
	require.Equal(t, "timeout", arc.saved[0].Error)
}

func TestRecorderSwallowsArchiveErrors(t *testing.T) {
	arc := &captureArchive{err: errors.New("bucket gone")}
	hook := Recorder(arc, nil)

	hook(context.Background(), "p", "t", nil, nil)
	require.Len(t, arc.saved, 1)
}
