package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	msg := []byte(`{"a":1}`)
	framed := Frame(msg)

	assert.Equal(t, append([]byte(`{"a":1}`), 0), framed)
	assert.Equal(t, []byte(`{"a":1}`), msg, "Frame must not modify its input")
	assert.Equal(t, msg, Unframe(framed))
}

func TestUnframe_WithoutTerminator(t *testing.T) {
	assert.Equal(t, []byte("abc"), Unframe([]byte("abc")))
	assert.Empty(t, Unframe([]byte{0}))
}

func TestHostFuncs_Missing(t *testing.T) {
	var h HostFuncs

	_, err := h.Exec(context.Background(), nil)
	assert.Error(t, err)
	_, err = h.Query(context.Background(), nil)
	assert.Error(t, err)
}

func TestHostFuncs_Dispatch(t *testing.T) {
	h := HostFuncs{
		ExecFunc:  func(context.Context, []byte) ([]byte, error) { return []byte("exec"), nil },
		QueryFunc: func(context.Context, []byte) ([]byte, error) { return []byte("query"), nil },
	}

	out, err := h.Exec(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "exec", string(out))

	out, err = h.Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "query", string(out))
}
