package types

// Event is an inbound message narrowed to the payload its type carries.
type Event interface{ isEvent() }

// StateSync carries a (partial) snapshot: join ack, reconnect or explicit refresh.
type StateSync struct {
	Kind   MessageType
	Shared *SharedStatePatch
	Mine   *PlayerStatePatch
}

type ServerError struct {
	Text       string
	ActiveGame *ActiveGameInfo
}

type Info struct{ Text string }

type Countdown struct{ Seconds *int }

type PlayerJoined struct {
	Name   string
	Shared *SharedStatePatch
}

type GameStarted struct {
	Text   string
	Shared *SharedStatePatch
}

type PlayerEliminated struct {
	UserName string
	Reason   string
	Shared   *SharedStatePatch
}

type PlayerTimeout struct {
	UserName string
	Shared   *SharedStatePatch
}

type TurnChange struct{ Shared *SharedStatePatch }

// GuessMade is broadcast for any player's letter or word attempt.
type GuessMade struct {
	Kind   MessageType
	Shared *SharedStatePatch
}

// MyGuessResult answers the viewer's own letter guess.
type MyGuessResult struct {
	Correct    bool
	MaskedWord string
	Mine       *PlayerStatePatch
}

type WordGuessIncorrect struct {
	Text   string
	Shared *SharedStatePatch
	Mine   *PlayerStatePatch
}

type GameOver struct {
	Kind   MessageType
	Text   string
	Word   string
	Shared *SharedStatePatch
}

// Won reports whether the game ended with the word found.
func (g GameOver) Won() bool {
	return g.Kind == MsgGameOverWinner || g.Kind == MsgWordRevealed
}

type CategoryAdded struct {
	Text       string
	Categories []string
}

type Categories struct {
	Categories []string
	Languages  []string
}

type LanguageCategories struct {
	Language   string
	Categories []string
}

// PlayerLeft covers pregame, midgame and lobby departures and disconnects.
type PlayerLeft struct {
	Kind     MessageType
	PlayerID PlayerID
	Name     string
	Text     string
	Shared   *SharedStatePatch
}

// Unknown is a type this client does not understand.
type Unknown struct{ Type MessageType }

func (StateSync) isEvent()          {}
func (ServerError) isEvent()        {}
func (Info) isEvent()               {}
func (Countdown) isEvent()          {}
func (PlayerJoined) isEvent()       {}
func (GameStarted) isEvent()        {}
func (PlayerEliminated) isEvent()   {}
func (PlayerTimeout) isEvent()      {}
func (TurnChange) isEvent()         {}
func (GuessMade) isEvent()          {}
func (MyGuessResult) isEvent()      {}
func (WordGuessIncorrect) isEvent() {}
func (GameOver) isEvent()           {}
func (CategoryAdded) isEvent()      {}
func (Categories) isEvent()         {}
func (LanguageCategories) isEvent() {}
func (PlayerLeft) isEvent()         {}
func (Unknown) isEvent()            {}

// Event narrows the envelope by its type.
func (e Envelope) Event() Event {
	switch e.Type {
	case MsgJoinSuccess, MsgJoinedSuccess, MsgReconnected, MsgCurrentGameState:
		return StateSync{Kind: e.Type, Shared: e.SharedGameState, Mine: e.PlayerSpecificGameState}
	case MsgError:
		return ServerError{Text: e.Message, ActiveGame: e.ActiveGameInfo}
	case MsgInfo:
		return Info{Text: e.Message}
	case MsgCountdown:
		return Countdown{Seconds: e.Countdown}
	case MsgPlayerJoined:
		name := e.UserName
		if e.Player != nil && e.Player.UserName != "" {
			name = e.Player.UserName
		}
		return PlayerJoined{Name: name, Shared: e.SharedGameState}
	case MsgGameStarted:
		return GameStarted{Text: e.Message, Shared: e.SharedGameState}
	case MsgPlayerEliminated:
		return PlayerEliminated{UserName: e.UserName, Reason: e.Reason, Shared: e.SharedGameState}
	case MsgPlayerTimeout:
		return PlayerTimeout{UserName: e.UserName, Shared: e.SharedGameState}
	case MsgTurnChange:
		return TurnChange{Shared: e.SharedGameState}
	case MsgGuessMade, MsgWordGuessAttempt:
		return GuessMade{Kind: e.Type, Shared: e.SharedGameState}
	case MsgMyGuessResult:
		return MyGuessResult{Correct: e.Correct, MaskedWord: e.SharedMaskedWord, Mine: e.PlayerSpecificGameState}
	case MsgWordGuessIncorrect:
		return WordGuessIncorrect{Text: e.Message, Shared: e.SharedGameState, Mine: e.PlayerSpecificGameState}
	case MsgGameOverWinner, MsgWordRevealed, MsgGameOverNoWinners, MsgGameOverHostEnded:
		return GameOver{Kind: e.Type, Text: e.Message, Word: e.Word, Shared: e.SharedGameState}
	case MsgCategoryAdded:
		return CategoryAdded{Text: e.Message, Categories: e.NewCategories}
	case MsgCategories:
		return Categories{Categories: e.Categories, Languages: e.Languages}
	case MsgLanguageCategories:
		return LanguageCategories{Language: e.Language, Categories: e.Categories}
	case MsgPlayerLeftPregame, MsgPlayerLeftMidgame, MsgPlayerLeftLobby, MsgPlayerDisconnected:
		name := e.PlayerName
		if name == "" {
			name = e.UserName
		}
		return PlayerLeft{Kind: e.Type, PlayerID: e.PlayerID, Name: name, Text: e.Message, Shared: e.SharedGameState}
	default:
		return Unknown{Type: e.Type}
	}
}
