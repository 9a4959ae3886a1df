package types

// Partial state payloads pushed by the server. Every field is optional: a key the
// server omits keeps the value the client already holds.

// SharedStatePatch is the `sharedGameState` object.
type SharedStatePatch struct {
	LobbyCode       Opt[string]                         `json:"lobbyCode,omitzero"`
	HostID          Opt[PlayerID]                       `json:"hostId,omitzero"`
	LanguageMode    Opt[string]                         `json:"languageMode,omitzero"`
	WordSourceMode  Opt[string]                         `json:"wordSourceMode,omitzero"`
	Category        Opt[string]                         `json:"category,omitzero"`
	MaskedWord      Opt[string]                         `json:"maskedWord,omitzero"`
	WordLength      Opt[int]                            `json:"wordLength,omitzero"`
	GameStarted     Opt[bool]                           `json:"gameStarted,omitzero"`
	GameEnded       Opt[bool]                           `json:"gameEnded,omitzero"`
	CurrentPlayerID Opt[PlayerID]                       `json:"currentPlayerId,omitzero"`
	TurnEndsAt      Opt[Timestamp]                      `json:"turnEndsAt,omitzero"`
	PlayerStates    Opt[map[PlayerID]PlayerPublicState] `json:"playerStates,omitzero"`
	Rankings        Opt[[]RankedPlayer]                 `json:"rankings,omitzero"`
	Word            Opt[string]                         `json:"word,omitzero"`
}

// PlayerStatePatch is the `playerSpecificGameState` object, private to the viewer.
type PlayerStatePatch struct {
	CorrectGuesses    Opt[[]string] `json:"correctGuesses,omitzero"`
	IncorrectGuesses  Opt[[]string] `json:"incorrectGuesses,omitzero"`
	RemainingAttempts Opt[int]      `json:"remainingAttempts,omitzero"`
	IsMyTurn          Opt[bool]     `json:"isMyTurn,omitzero"`
	Won               Opt[bool]     `json:"won,omitzero"`
	Eliminated        Opt[bool]     `json:"eliminated,omitzero"`
	IsParticipating   Opt[bool]     `json:"isParticipating,omitzero"`
}

// PlayerPublicState is one entry of `playerStates`. Entries are replaced whole.
type PlayerPublicState struct {
	UserID            PlayerID `json:"userId"`
	Name              string   `json:"name,omitempty"`
	UserName          string   `json:"userName,omitempty"`
	RemainingAttempts int      `json:"remainingAttempts"`
	Won               bool     `json:"won"`
	Eliminated        bool     `json:"eliminated"`
	IsParticipating   bool     `json:"isParticipating"`
}

// DisplayName prefers the lobby display name over the account name.
func (p PlayerPublicState) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.UserName
}

// RankedPlayer is one row of the end-of-game rankings, winner first.
type RankedPlayer struct {
	PlayerID          PlayerID `json:"playerId,omitempty"`
	UserID            PlayerID `json:"userId,omitempty"`
	Name              string   `json:"name,omitempty"`
	UserName          string   `json:"userName,omitempty"`
	Rank              int      `json:"rank,omitempty"`
	Won               bool     `json:"won"`
	Eliminated        bool     `json:"eliminated"`
	RemainingAttempts int      `json:"remainingAttempts"`
}

func (r RankedPlayer) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.UserName
}
