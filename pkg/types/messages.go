package types

import (
	"encoding/json"
	"fmt"
)

// Server -> client message types.
type MessageType string

const (
	MsgJoinSuccess        MessageType = "HANGMAN_JOIN_SUCCESS"
	MsgJoinedSuccess      MessageType = "HANGMAN_JOINED_SUCCESS" // older servers
	MsgReconnected        MessageType = "HANGMAN_RECONNECTED"
	MsgCurrentGameState   MessageType = "HANGMAN_CURRENT_GAME_STATE"
	MsgError              MessageType = "HANGMAN_ERROR"
	MsgInfo               MessageType = "HANGMAN_INFO"
	MsgCountdown          MessageType = "HANGMAN_COUNTDOWN"
	MsgPlayerJoined       MessageType = "HANGMAN_PLAYER_JOINED"
	MsgGameStarted        MessageType = "HANGMAN_GAME_STARTED"
	MsgPlayerEliminated   MessageType = "HANGMAN_PLAYER_ELIMINATED"
	MsgPlayerTimeout      MessageType = "HANGMAN_PLAYER_TIMEOUT"
	MsgTurnChange         MessageType = "HANGMAN_TURN_CHANGE"
	MsgGuessMade          MessageType = "HANGMAN_GUESS_MADE"
	MsgWordGuessAttempt   MessageType = "HANGMAN_WORD_GUESS_ATTEMPT"
	MsgMyGuessResult      MessageType = "HANGMAN_MY_GUESS_RESULT"
	MsgWordGuessIncorrect MessageType = "HANGMAN_WORD_GUESS_INCORRECT"
	MsgGameOverWinner     MessageType = "HANGMAN_GAME_OVER_WINNER"
	MsgWordRevealed       MessageType = "HANGMAN_WORD_REVEALED_GAME_OVER"
	MsgGameOverNoWinners  MessageType = "HANGMAN_GAME_OVER_NO_WINNERS"
	MsgGameOverHostEnded  MessageType = "HANGMAN_GAME_OVER_HOST_ENDED"
	MsgCategoryAdded      MessageType = "HANGMAN_CATEGORY_ADDED"
	MsgCategories         MessageType = "HANGMAN_CATEGORIES"
	MsgLanguageCategories MessageType = "HANGMAN_LANGUAGE_CATEGORIES"
	MsgPlayerLeftPregame  MessageType = "HANGMAN_PLAYER_LEFT_PREGAME"
	MsgPlayerLeftMidgame  MessageType = "HANGMAN_PLAYER_LEFT_MIDGAME"
	MsgPlayerLeftLobby    MessageType = "HANGMAN_PLAYER_LEFT_LOBBY"
	MsgPlayerDisconnected MessageType = "HANGMAN_PLAYER_DISCONNECTED_UPDATE"
)

// ActiveGameInfo points at another lobby where the user already plays.
type ActiveGameInfo struct {
	LobbyCode string `json:"lobbyCode"`
}

type PlayerRef struct {
	UserID   PlayerID `json:"userId,omitempty"`
	UserName string   `json:"userName,omitempty"`
}

// Envelope is a decoded inbound frame before it is narrowed to an Event.
type Envelope struct {
	Type                    MessageType       `json:"type"`
	LobbyCode               string            `json:"lobbyCode,omitempty"`
	Message                 string            `json:"message,omitempty"`
	SharedGameState         *SharedStatePatch `json:"sharedGameState,omitempty"`
	PlayerSpecificGameState *PlayerStatePatch `json:"playerSpecificGameState,omitempty"`
	SharedMaskedWord        string            `json:"sharedMaskedWord,omitempty"`
	Correct                 bool              `json:"correct,omitempty"`
	Word                    string            `json:"word,omitempty"`
	UserName                string            `json:"userName,omitempty"`
	PlayerName              string            `json:"playerName,omitempty"`
	PlayerID                PlayerID          `json:"playerId,omitempty"`
	Player                  *PlayerRef        `json:"player,omitempty"`
	Reason                  string            `json:"reason,omitempty"`
	Categories              []string          `json:"categories,omitempty"`
	NewCategories           []string          `json:"newCategories,omitempty"`
	Languages               []string          `json:"languages,omitempty"`
	Language                string            `json:"language,omitempty"`
	ActiveGameInfo          *ActiveGameInfo   `json:"activeGameInfo,omitempty"`
	Countdown               *int              `json:"countdown,omitempty"`
}

// Decode parses one text frame.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode frame: missing type")
	}
	return env, nil
}

// OriginLobby is the lobby the message was produced for, if it says so.
func (e Envelope) OriginLobby() string {
	if e.LobbyCode != "" {
		return e.LobbyCode
	}
	if e.SharedGameState != nil && e.SharedGameState.LobbyCode.Set {
		return e.SharedGameState.LobbyCode.Value
	}
	return ""
}
