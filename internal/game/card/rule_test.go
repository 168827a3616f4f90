package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanPlay(t *testing.T) {
	t.Parallel()

	red5 := Card{Color: Red, Value: "5"}

	tests := []struct {
		name      string
		candidate Card
		active    Card
		want      bool
	}{
		{"same color", Card{Color: Red, Value: "9"}, red5, true},
		{"same value", Card{Color: Blue, Value: "5"}, red5, true},
		{"same action value", Card{Color: Blue, Value: Skip}, Card{Color: Green, Value: Skip}, true},
		{"no match", Card{Color: Blue, Value: "7"}, red5, false},
		{"wild always", Card{Color: Wild, Value: WildCard}, red5, true},
		{"wild draw four always", Card{Color: Wild, Value: WildDrawFour}, red5, true},
		{"chosen color match", Card{Color: Green, Value: "2"}, Card{Color: Wild, Value: WildCard, ChosenColor: Green}, true},
		{"chosen color mismatch", Card{Color: Red, Value: "2"}, Card{Color: Wild, Value: WildCard, ChosenColor: Green}, false},
		{"wild on chosen color", Card{Color: Wild, Value: WildDrawFour}, Card{Color: Wild, Value: WildCard, ChosenColor: Green}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CanPlay(tt.candidate, tt.active))
		})
	}
}

func TestEffectOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Effect{}, EffectOf(Card{Color: Red, Value: "0"}))
	assert.Equal(t, Effect{Skip: true}, EffectOf(Card{Color: Red, Value: Skip}))
	assert.Equal(t, Effect{Reverse: true}, EffectOf(Card{Color: Red, Value: Reverse}))
	assert.Equal(t, Effect{Skip: true, Draw: 2}, EffectOf(Card{Color: Red, Value: DrawTwo}))
	assert.Equal(t, Effect{ChooseColor: true}, EffectOf(Card{Color: Wild, Value: WildCard}))
	assert.Equal(t, Effect{Skip: true, Draw: 4, ChooseColor: true}, EffectOf(Card{Color: Wild, Value: WildDrawFour}))
}
