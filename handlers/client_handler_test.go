package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mazebound/server/messages"
	"mazebound/server/services"
)

func TestDecode(t *testing.T) {
	t.Run("typed payload", func(t *testing.T) {
		var got messages.MovePayload
		err := decode(json.RawMessage(`{"sessionId":"s1","characterId":"c1","direction":"up"}`), func(p messages.MovePayload) error {
			got = p
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "s1", got.SessionID)
		assert.Equal(t, "c1", got.CharacterID)
		assert.Equal(t, "up", got.Direction)
	})

	t.Run("empty payload runs with zero value", func(t *testing.T) {
		ran := false
		err := decode(nil, func(p messages.ChatPayload) error {
			ran = true
			assert.Empty(t, p.Message)
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("malformed payload never reaches the command", func(t *testing.T) {
		err := decode(json.RawMessage(`{"difficulty":"very"}`), func(p messages.StartDungeonPayload) error {
			t.Fatal("command ran on malformed payload")
			return nil
		})
		require.Error(t, err)
		assert.Equal(t, services.KindInvalidState, services.KindOf(err))
		assert.Equal(t, "Malformed payload", services.ClientMessage(err))
	})
}
