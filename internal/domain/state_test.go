package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState_EmptyValues(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "undefined"} {
		state, err := ParseState(raw)
		require.NoError(t, err, raw)
		assert.Nil(t, state, raw)
	}
}

func TestParseState_StepOnly(t *testing.T) {
	state, err := ParseState("ASK_NAME")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StepAskName, state.Step)
	assert.Nil(t, state.LinkedID)
	assert.Equal(t, "ASK_NAME", state.String())
}

func TestParseState_WithLinkedID(t *testing.T) {
	id := uuid.New()
	raw := "ASK_CHILD_AGE:" + id.String()

	state, err := ParseState(raw)
	require.NoError(t, err)
	require.NotNil(t, state.LinkedID)
	assert.Equal(t, StepAskChildAge, state.Step)
	assert.Equal(t, id, *state.LinkedID)
	assert.Equal(t, raw, state.String())
}

func TestParseState_BadLinkedID(t *testing.T) {
	_, err := ParseState("ASK_CHILD_AGE:17")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = ParseState(":abc")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConversationState_NilString(t *testing.T) {
	var s *ConversationState
	assert.Equal(t, "", s.String())
}
