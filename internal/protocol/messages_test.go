package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
)

func TestDecodeRequests(t *testing.T) {
	m, err := Decode([]byte(`{"messageType":"JoinGameRequest","playerName":"User_1"}`))
	if err != nil {
		t.Fatal(err)
	}
	join, ok := m.(*JoinGameRequest)
	if !ok || join.PlayerName != "User_1" {
		t.Fatalf("unexpected message %#v", m)
	}

	m, err = Decode([]byte(`{"messageType":"GuessRequest","guess":"HIGH","playerName":"User_1"}`))
	if err != nil {
		t.Fatal(err)
	}
	guess, ok := m.(*GuessRequest)
	if !ok || guess.Guess != "HIGH" || guess.PlayerName != "User_1" {
		t.Fatalf("unexpected message %#v", m)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"not json", `hello`, ErrMalformedMessage},
		{"missing type", `{"playerName":"A"}`, ErrUnknownMessageType},
		{"unknown type", `{"messageType":"ChatMessage"}`, ErrUnknownMessageType},
		{"wrong field type", `{"messageType":"JoinGameRequest","playerName":5}`, ErrMalformedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.input)); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func fields(t *testing.T, data []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid json %s: %v", data, err)
	}
	return out
}

func TestEncodeNotifications(t *testing.T) {
	tests := []struct {
		msg  Message
		want map[string]any
	}{
		{
			PlayerJoinedNotification{NewPlayerName: "A", NumPlayers: 1},
			map[string]any{"messageType": "PlayerJoinedNotification", "newPlayerName": "A", "numPlayers": float64(1)},
		},
		{
			PlayerLeftNotification{PlayerName: "B", NumPlayers: 1},
			map[string]any{"messageType": "PlayerLeftNotification", "playerName": "B", "numPlayers": float64(1)},
		},
		{
			PlayerGuessedNotification{PlayerGuessed: "B", NumNotGuessedPlayers: 1},
			map[string]any{"messageType": "PlayerGuessedNotification", "playerGuessed": "B", "numNotGuessedPlayers": float64(1)},
		},
		{
			ErrorNotification{Error: "nope"},
			map[string]any{"messageType": "ErrorNotification", "error": "nope"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.msg.MessageType(), func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			got := fields(t, data)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d fields, got %s", len(tt.want), data)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s: got %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestEncodeGameState(t *testing.T) {
	card := game.MustCard(game.Diamonds, 1)
	data, err := Encode(GameStateNotification{
		CurrentCard: FromCard(card),
		NumRounds:   2,
		PlayerName:  "User_1",
		Score:       1,
	})
	if err != nil {
		t.Fatal(err)
	}

	got := fields(t, data)
	current, ok := got["currentCard"].(map[string]any)
	if !ok {
		t.Fatalf("missing currentCard in %s", data)
	}
	if current["suit"] != "DIAMONDS" || current["value"] != float64(1) {
		t.Fatalf("unexpected card %v", current)
	}
	if got["numRounds"] != float64(2) || got["score"] != float64(1) || got["playerName"] != "User_1" {
		t.Fatalf("unexpected state %s", data)
	}

	m, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	decoded := m.(*GameStateNotification)
	back, err := decoded.CurrentCard.ToCard()
	if err != nil || back != card {
		t.Fatalf("card round trip: %v %v", back, err)
	}
}

func TestCardToCardInvalid(t *testing.T) {
	if _, err := (Card{Suit: "STARS", Value: 1}).ToCard(); !errors.Is(err, game.ErrInvalidSuit) {
		t.Fatalf("expected ErrInvalidSuit, got %v", err)
	}
	if _, err := (Card{Suit: "CLUBS", Value: 14}).ToCard(); !errors.Is(err, game.ErrInvalidRank) {
		t.Fatalf("expected ErrInvalidRank, got %v", err)
	}
}
