package engine

import (
	"maps"
	"slices"

	"github.com/DoyleJ11/hangman-client/pkg/types"
)

// NewState is the view before the server has said anything.
func NewState(v Viewer) State {
	return State{
		Viewer: v,
		Phase:  PhaseLoading,
		Shared: SharedState{
			LobbyCode:    v.LobbyCode,
			PlayerStates: map[types.PlayerID]types.PlayerPublicState{},
		},
		Mine:      MyState{RemainingAttempts: MaxAttempts},
		HostSetup: HostSetup{WordSourceMode: types.WordSourceServer},
	}
}

// recompute derives the phase from the flags carried by the message itself.
// Flags the message omits never move the phase, so an older partial state can
// not drag a running game back to waiting. Error is sticky.
func recompute(prev Phase, p *types.SharedStatePatch) Phase {
	if prev == PhaseError {
		return prev
	}
	if p != nil && p.GameEnded.Set && p.GameEnded.Value {
		return PhaseEnded
	}
	if p != nil && p.GameStarted.Set && p.GameStarted.Value {
		return PhasePlaying
	}
	switch prev {
	case PhaseCountdown, PhasePlaying, PhaseEnded:
		return prev
	}
	return PhaseWaiting
}

// mergeShared copies every key present in p over s. Collections are replaced
// whole, never merged element-wise.
func mergeShared(s SharedState, p *types.SharedStatePatch) SharedState {
	if p == nil {
		return s
	}
	p.LobbyCode.MergeInto(&s.LobbyCode)
	p.HostID.MergeInto(&s.HostID)
	p.LanguageMode.MergeInto(&s.LanguageMode)
	p.WordSourceMode.MergeInto(&s.WordSourceMode)
	p.Category.MergeInto(&s.Category)
	p.MaskedWord.MergeInto(&s.MaskedWord)
	p.WordLength.MergeInto(&s.WordLength)
	p.GameStarted.MergeInto(&s.GameStarted)
	p.GameEnded.MergeInto(&s.GameEnded)
	p.CurrentPlayerID.MergeInto(&s.CurrentPlayerID)
	p.Word.MergeInto(&s.Word)
	if p.TurnEndsAt.Set {
		s.TurnEndsAt = p.TurnEndsAt.Value.Time
	}
	if p.PlayerStates.Set {
		s.PlayerStates = maps.Clone(p.PlayerStates.Value)
	}
	if p.Rankings.Set {
		s.Rankings = slices.Clone(p.Rankings.Value)
	}
	return s
}

func mergeMine(m MyState, p *types.PlayerStatePatch) MyState {
	if p == nil {
		return m
	}
	if p.CorrectGuesses.Set {
		m.CorrectGuesses = dedupe(p.CorrectGuesses.Value)
	}
	if p.IncorrectGuesses.Set {
		m.IncorrectGuesses = dedupe(p.IncorrectGuesses.Value)
	}
	p.RemainingAttempts.MergeInto(&m.RemainingAttempts)
	p.IsMyTurn.MergeInto(&m.IsMyTurn)
	p.Won.MergeInto(&m.Won)
	p.Eliminated.MergeInto(&m.Eliminated)
	p.IsParticipating.MergeInto(&m.IsParticipating)
	return m
}

// normalizeShared keeps the terminal flags exclusive, hides end-of-game data
// while a game is not over and sanitizes every player row.
func normalizeShared(s SharedState) SharedState {
	s.PlayerStates = normalizePlayers(s.PlayerStates)
	if s.GameEnded {
		s.GameStarted = false
		return s
	}
	s.Rankings = nil
	s.Word = ""
	return s
}

// normalizeMine keeps the guess sets disjoint, lets a win override elimination
// and clears isMyTurn unless the shared state names the viewer as current player.
func normalizeMine(m MyState, current, self types.PlayerID) MyState {
	if m.IsMyTurn && (self == "" || current != self) {
		m.IsMyTurn = false
	}
	if m.Won && m.Eliminated {
		m.Eliminated = false
	}
	m.RemainingAttempts = clampAttempts(m.RemainingAttempts)
	if len(m.CorrectGuesses) > 0 && slices.ContainsFunc(m.IncorrectGuesses, func(l string) bool {
		return slices.Contains(m.CorrectGuesses, l)
	}) {
		m.IncorrectGuesses = slices.DeleteFunc(slices.Clone(m.IncorrectGuesses), func(l string) bool {
			return slices.Contains(m.CorrectGuesses, l)
		})
	}
	return m
}

// normalizePlayers returns players unchanged when every row is sane. Otherwise
// it returns a fixed copy; snapshots share the original map.
func normalizePlayers(players map[types.PlayerID]types.PlayerPublicState) map[types.PlayerID]types.PlayerPublicState {
	var out map[types.PlayerID]types.PlayerPublicState
	for id, p := range players {
		fixed := p
		if fixed.Won {
			fixed.Eliminated = false
		}
		fixed.RemainingAttempts = clampAttempts(fixed.RemainingAttempts)
		if fixed == p {
			continue
		}
		if out == nil {
			out = maps.Clone(players)
		}
		out[id] = fixed
	}
	if out == nil {
		return players
	}
	return out
}

func clampAttempts(n int) int {
	return min(max(n, 0), MaxAttempts)
}

func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
