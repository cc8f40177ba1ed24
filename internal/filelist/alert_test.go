package filelist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertSlot_LastWriteWins(t *testing.T) {
	s := &alertSlot{timeout: time.Hour}
	defer s.stop()

	s.show("first", AlertError, func(uint64) {})
	s.show("second", AlertSuccess, func(uint64) {})

	a := s.visible()
	require.NotNil(t, a)
	assert.Equal(t, "second", a.Text)
	assert.Equal(t, AlertSuccess, a.Kind)
	assert.Equal(t, uint64(2), s.gen)
}

func TestAlertSlot_StaleGenerationDoesNotHide(t *testing.T) {
	s := &alertSlot{timeout: time.Hour}
	defer s.stop()

	s.show("first", AlertError, nil)
	s.show("second", AlertError, nil)

	assert.False(t, s.hide(1))
	require.NotNil(t, s.visible())

	assert.True(t, s.hide(2))
	assert.Nil(t, s.visible())
	assert.False(t, s.hide(2))
}

func TestAlertSlot_TimerFiresWithGeneration(t *testing.T) {
	s := &alertSlot{timeout: 10 * time.Millisecond}
	fired := make(chan uint64, 1)

	s.show("boom", AlertError, func(gen uint64) { fired <- gen })

	select {
	case gen := <-fired:
		assert.Equal(t, uint64(1), gen)
	case <-time.After(time.Second):
		t.Fatal("hide timer did not fire")
	}
}

func TestAlertSlot_VisibleIsCopy(t *testing.T) {
	s := &alertSlot{timeout: time.Hour}
	defer s.stop()

	s.show("boom", AlertError, nil)
	a := s.visible()
	a.Text = "changed"
	assert.Equal(t, "boom", s.visible().Text)
}

func TestAlertKind_String(t *testing.T) {
	assert.Equal(t, "error", AlertError.String())
	assert.Equal(t, "success", AlertSuccess.String())
}
