package codec

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-server/internal/game/card"
	"github.com/palemoky/uno-server/internal/protocol"
)

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	assert.NotNil(t, msg)

	msg.Type = "test"
	msg.Payload = []byte("data")
	PutMessage(msg)

	// Get again - should be reset
	msg2 := GetMessage()
	assert.NotNil(t, msg2)
	assert.Empty(t, msg2.Type)
	assert.Nil(t, msg2.Payload)
}

func TestMessagePool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutMessage(nil)
	})
}

func TestMessagePool_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			msg := GetMessage()
			msg.Type = protocol.MsgBuyCard
			PutMessage(msg)
		})
	}
	wg.Wait()
}

func TestEncode_Envelope(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgPlayCard, protocol.PlayCardPayload{
		Card: card.Card{Color: card.Red, Value: card.Skip},
	})
	data, err := Encode(msg)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"PLAY_CARD"`, string(raw["type"]))
	assert.JSONEq(t, `{"card":{"color":"red","value":"Skip"}}`, string(raw["payload"]))
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestDecode_ParsePayload(t *testing.T) {
	t.Parallel()

	msg, err := Decode([]byte(`{"type":"CHOOSE_COLOR","payload":{"color":"blue"}}`))
	require.NoError(t, err)
	defer PutMessage(msg)

	assert.Equal(t, protocol.MsgChooseColor, msg.Type)
	payload, err := ParsePayload[protocol.ChooseColorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "blue", payload.Color)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"type":`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrEmptyType)
}

func TestParsePayload_Missing(t *testing.T) {
	t.Parallel()

	_, err := ParsePayload[protocol.PlayCardPayload](&protocol.Message{Type: protocol.MsgPlayCard})
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeNotYourTurn)
	assert.Equal(t, protocol.MsgError, msg.Type)

	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNotYourTurn, payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeNotYourTurn], payload.Message)
	assert.Empty(t, payload.Action)

	leave := NewLeaveRoomError(protocol.ErrCodeRoomNotFound, "gone")
	payload, err = ParsePayload[protocol.ErrorPayload](leave)
	require.NoError(t, err)
	assert.Equal(t, protocol.ActionLeaveRoom, payload.Action)
	assert.Equal(t, "gone", payload.Message)
}
