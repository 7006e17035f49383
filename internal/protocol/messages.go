// Package protocol defines the line-oriented JSON messages exchanged between
// game clients and the server. Every message is a JSON object tagged with a
// "messageType" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMalformedMessage   = errors.New("malformed message")
)

const (
	TypeJoinGameRequest           = "JoinGameRequest"
	TypeGuessRequest              = "GuessRequest"
	TypePlayerJoinedNotification  = "PlayerJoinedNotification"
	TypePlayerLeftNotification    = "PlayerLeftNotification"
	TypePlayerGuessedNotification = "PlayerGuessedNotification"
	TypeGameStateNotification     = "GameStateNotification"
	TypeErrorNotification         = "ErrorNotification"
)

// Message is implemented by every wire message.
type Message interface {
	MessageType() string
}

// JoinGameRequest asks to join the game under PlayerName.
type JoinGameRequest struct {
	PlayerName string `json:"playerName"`
}

// GuessRequest submits a guess for the running round.
type GuessRequest struct {
	PlayerName string `json:"playerName"`
	Guess      string `json:"guess"`
}

type PlayerJoinedNotification struct {
	NewPlayerName string `json:"newPlayerName"`
	NumPlayers    int    `json:"numPlayers"`
}

type PlayerLeftNotification struct {
	PlayerName string `json:"playerName"`
	NumPlayers int    `json:"numPlayers"`
}

// PlayerGuessedNotification confirms a guess to the player who made it.
type PlayerGuessedNotification struct {
	PlayerGuessed        string `json:"playerGuessed"`
	NumNotGuessedPlayers int    `json:"numNotGuessedPlayers"`
}

// GameStateNotification is the per-player view of the game state.
type GameStateNotification struct {
	CurrentCard *Card  `json:"currentCard"`
	NumRounds   int    `json:"numRounds"`
	PlayerName  string `json:"playerName"`
	Score       int    `json:"score"`
}

// ErrorNotification reports a rejected request back to its sender.
type ErrorNotification struct {
	Error string `json:"error"`
}

func (JoinGameRequest) MessageType() string           { return TypeJoinGameRequest }
func (GuessRequest) MessageType() string              { return TypeGuessRequest }
func (PlayerJoinedNotification) MessageType() string  { return TypePlayerJoinedNotification }
func (PlayerLeftNotification) MessageType() string    { return TypePlayerLeftNotification }
func (PlayerGuessedNotification) MessageType() string { return TypePlayerGuessedNotification }
func (GameStateNotification) MessageType() string     { return TypeGameStateNotification }
func (ErrorNotification) MessageType() string         { return TypeErrorNotification }

// Card is the wire form of a game card: suit name plus rank value.
type Card struct {
	Suit  string `json:"suit"`
	Value int    `json:"value"`
}

func FromCard(c game.Card) *Card {
	return &Card{Suit: c.Suit().String(), Value: c.Rank()}
}

func (c Card) ToCard() (game.Card, error) {
	suit, err := game.ParseSuit(c.Suit)
	if err != nil {
		return game.Card{}, err
	}
	return game.NewCard(suit, c.Value)
}

// Encode marshals m as a single JSON object carrying its messageType.
func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	tag, _ := json.Marshal(m.MessageType())
	fields["messageType"] = tag
	return json.Marshal(fields)
}

// Decode parses one message. It fails with ErrUnknownMessageType when the
// messageType tag is missing or unrecognized.
func Decode(data []byte) (Message, error) {
	var envelope struct {
		MessageType string `json:"messageType"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var m Message
	switch envelope.MessageType {
	case TypeJoinGameRequest:
		m = &JoinGameRequest{}
	case TypeGuessRequest:
		m = &GuessRequest{}
	case TypePlayerJoinedNotification:
		m = &PlayerJoinedNotification{}
	case TypePlayerLeftNotification:
		m = &PlayerLeftNotification{}
	case TypePlayerGuessedNotification:
		m = &PlayerGuessedNotification{}
	case TypeGameStateNotification:
		m = &GameStateNotification{}
	case TypeErrorNotification:
		m = &ErrorNotification{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, envelope.MessageType)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, envelope.MessageType, err)
	}
	return m, nil
}
