package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapEventCancelsTransition(t *testing.T) {
	errGuard := errors.New("guard")
	m := fsm.NewFSM("idle",
		fsm.Events{{Name: "go", Src: []string{"idle"}, Dst: "busy"}},
		fsm.Callbacks{
			"before_go": WrapEvent(func(_ context.Context, _ *fsm.Event) error { return errGuard }),
		},
	)

	err := m.Event(context.Background(), "go")
	require.Error(t, err)
	assert.ErrorIs(t, err, errGuard)
	assert.Equal(t, "idle", m.Current())
}

func TestWrapEventPassesThrough(t *testing.T) {
	m := fsm.NewFSM("idle",
		fsm.Events{{Name: "go", Src: []string{"idle", "busy"}, Dst: "busy"}},
		fsm.Callbacks{
			"before_go": WrapEvent(func(_ context.Context, _ *fsm.Event) error { return nil }),
		},
	)

	require.NoError(t, m.Event(context.Background(), "go"))
	assert.Equal(t, "busy", m.Current())

	err := m.Event(context.Background(), "go")
	assert.True(t, IsNoTransition(err))
	assert.False(t, IsNoTransition(errors.New("other")))
}
