package engine

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/hangman-client/pkg/types"
)

// IsHost reports whether the viewer runs the lobby, either by the host app's
// word or by the server's hostId.
func (s State) IsHost() bool {
	if s.Viewer.IsHost {
		return true
	}
	return s.Viewer.UserID != "" && s.Shared.HostID == s.Viewer.UserID
}

// AmIPlaying reports whether the viewer takes part in the current game.
func (s State) AmIPlaying() bool {
	if s.Mine.IsParticipating {
		return true
	}
	_, ok := s.Shared.PlayerStates[s.Viewer.UserID]
	return ok && s.Viewer.UserID != ""
}

// MyRemainingAttempts prefers the public roster entry, which the server updates
// on every guess, over the private state.
func (s State) MyRemainingAttempts() int {
	if ps, ok := s.Shared.PlayerStates[s.Viewer.UserID]; ok && s.Viewer.UserID != "" {
		return ps.RemainingAttempts
	}
	if s.Mine.Eliminated {
		return 0
	}
	return s.Mine.RemainingAttempts
}

// CurrentPlayerName is empty when nobody holds the turn.
func (s State) CurrentPlayerName() string {
	id := s.Shared.CurrentPlayerID
	if id == "" {
		return ""
	}
	if id == s.Viewer.UserID {
		return "You"
	}
	if ps, ok := s.Shared.PlayerStates[id]; ok {
		return ps.DisplayName()
	}
	return ""
}

// CanGuess reports whether a guess from the viewer would be accepted locally.
func (s State) CanGuess() bool {
	return s.Mine.IsMyTurn && !s.Shared.GameEnded
}

// HasGuessed reports whether letter was already tried by the viewer.
func (s State) HasGuessed(letter string) bool {
	return slices.Contains(s.Mine.CorrectGuesses, letter) || slices.Contains(s.Mine.IncorrectGuesses, letter)
}

// SortedPlayers orders the roster: viewer, host, current player, then by name.
func (s State) SortedPlayers() []types.PlayerPublicState {
	players := make([]types.PlayerPublicState, 0, len(s.Shared.PlayerStates))
	for id, ps := range s.Shared.PlayerStates {
		if ps.UserID == "" {
			ps.UserID = id
		}
		players = append(players, ps)
	}

	rank := func(p types.PlayerPublicState) int {
		switch {
		case p.UserID == s.Viewer.UserID && s.Viewer.UserID != "":
			return 0
		case p.UserID == s.Shared.HostID && s.Shared.HostID != "":
			return 1
		case p.UserID == s.Shared.CurrentPlayerID && s.Shared.CurrentPlayerID != "":
			return 2
		}
		return 3
	}
	slices.SortFunc(players, func(a, b types.PlayerPublicState) int {
		return cmp.Or(
			cmp.Compare(rank(a), rank(b)),
			strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())),
			strings.Compare(string(a.UserID), string(b.UserID)),
		)
	})
	return players
}

// Standing is one row of the end-of-game table.
type Standing struct {
	Rank              int            `json:"rank"`
	UserID            types.PlayerID `json:"userId"`
	Name              string         `json:"name"`
	Won               bool           `json:"won"`
	Eliminated        bool           `json:"eliminated"`
	RemainingAttempts int            `json:"remainingAttempts"`
	IsMe              bool           `json:"isMe"`
}

// Standings labels the server's rankings in order. Rows without a name borrow
// one from the roster, or the viewer's own name. Empty until the game ends.
func (s State) Standings() []Standing {
	if len(s.Shared.Rankings) == 0 {
		return nil
	}
	out := make([]Standing, 0, len(s.Shared.Rankings))
	for i, r := range s.Shared.Rankings {
		id := cmp.Or(r.UserID, r.PlayerID)
		me := id != "" && id == s.Viewer.UserID
		name := r.DisplayName()
		if name == "" {
			if ps, ok := s.Shared.PlayerStates[id]; ok {
				name = ps.DisplayName()
			}
		}
		if name == "" && me {
			name = s.Viewer.UserName
		}
		out = append(out, Standing{
			Rank:              cmp.Or(r.Rank, i+1),
			UserID:            id,
			Name:              name,
			Won:               r.Won,
			Eliminated:        r.Eliminated && !r.Won,
			RemainingAttempts: clampAttempts(r.RemainingAttempts),
			IsMe:              me,
		})
	}
	return out
}

// NormalizeLetter folds input to a single lower-case letter using the casing
// rules of languageMode. ok is false for anything but exactly one letter.
func NormalizeLetter(input, languageMode string) (letter string, ok bool) {
	input = strings.TrimSpace(input)
	if utf8.RuneCountInString(input) != 1 {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(input)
	if !unicode.IsLetter(r) {
		return "", false
	}
	return cases.Lower(languageTag(languageMode)).String(input), true
}

// NormalizeWord trims and lower-cases a whole-word guess.
func NormalizeWord(input, languageMode string) string {
	return cases.Lower(languageTag(languageMode)).String(strings.TrimSpace(input))
}

func languageTag(mode string) language.Tag {
	if mode == "" {
		return language.Und
	}
	tag, err := language.Parse(mode)
	if err != nil {
		return language.Und
	}
	return tag
}
