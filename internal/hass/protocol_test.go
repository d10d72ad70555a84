package hass

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMediaPlayer(t *testing.T) {
	require.True(t, IsMediaPlayer("media_player.kitchen"))
	require.False(t, IsMediaPlayer("light.kitchen"))
	require.False(t, IsMediaPlayer("media_player"))
	require.False(t, IsMediaPlayer("sensor.media_player_count"))
}

func TestCallServicePayload(t *testing.T) {
	payload := CallServicePayload("media_seek", "media_player.kitchen", map[string]any{"seek_position": 12.5})

	require.Equal(t, TypeCallService, payload.Type())
	require.Equal(t, "media_player", payload["domain"])
	require.Equal(t, "media_seek", payload["service"])
	require.Equal(t, map[string]any{
		"entity_id":     "media_player.kitchen",
		"seek_position": 12.5,
	}, payload["service_data"])
}

func TestIncomingMessage_HasResult(t *testing.T) {
	var withNull IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"result","id":1,"success":true,"result":null}`), &withNull))
	require.False(t, withNull.HasResult())

	var missing IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"result","id":1,"success":true}`), &missing))
	require.False(t, missing.HasResult())

	var withBody IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"result","id":2,"success":true,"result":[]}`), &withBody))
	require.True(t, withBody.HasResult())
	require.Equal(t, int64(2), withBody.ID)
}
