package engine

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/DoyleJ11/hangman-client/internal/notify"
	"github.com/DoyleJ11/hangman-client/internal/sound"
	"github.com/DoyleJ11/hangman-client/pkg/types"
)

type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseEnded     Phase = "ended"
	PhaseError     Phase = "error"
)

const (
	MaxAttempts = 6

	ShortNotice = 2500 * time.Millisecond
	LongNotice  = 10 * time.Second
)

// Viewer is the local user and the lobby on screen, supplied by the host app.
type Viewer struct {
	UserID    types.PlayerID `json:"userId"`
	UserName  string         `json:"userName,omitempty"`
	LobbyCode string         `json:"lobbyCode"`
	IsHost    bool           `json:"isHost"`
}

type SharedState struct {
	LobbyCode       string                                     `json:"lobbyCode"`
	HostID          types.PlayerID                             `json:"hostId,omitempty"`
	LanguageMode    string                                     `json:"languageMode,omitempty"`
	WordSourceMode  string                                     `json:"wordSourceMode,omitempty"`
	Category        string                                     `json:"category"`
	MaskedWord      string                                     `json:"maskedWord"`
	WordLength      int                                        `json:"wordLength"`
	GameStarted     bool                                       `json:"gameStarted"`
	GameEnded       bool                                       `json:"gameEnded"`
	CurrentPlayerID types.PlayerID                             `json:"currentPlayerId,omitempty"`
	TurnEndsAt      time.Time                                  `json:"turnEndsAt,omitzero"`
	PlayerStates    map[types.PlayerID]types.PlayerPublicState `json:"playerStates"`
	Rankings        []types.RankedPlayer                       `json:"rankings"`
	Word            string                                     `json:"word,omitempty"`
}

type MyState struct {
	CorrectGuesses    []string `json:"correctGuesses"`
	IncorrectGuesses  []string `json:"incorrectGuesses"`
	RemainingAttempts int      `json:"remainingAttempts"`
	IsMyTurn          bool     `json:"isMyTurn"`
	Won               bool     `json:"won"`
	Eliminated        bool     `json:"eliminated"`
	IsParticipating   bool     `json:"isParticipating"`
}

// HostSetup is what the host assembles before starting a game.
type HostSetup struct {
	Language            string   `json:"language,omitempty"`
	WordSourceMode      string   `json:"wordSourceMode"`
	Category            string   `json:"category,omitempty"`
	CustomWord          string   `json:"customWord,omitempty"`
	CustomCategory      string   `json:"customCategory,omitempty"`
	AvailableLanguages  []string `json:"availableLanguages"`
	AvailableCategories []string `json:"availableCategories"`
}

// Conflict blocks the view: the user already has an active game in another lobby.
type Conflict struct {
	LobbyCode string `json:"lobbyCode"`
}

type State struct {
	Viewer    Viewer
	Phase     Phase
	Countdown *int
	Shared    SharedState
	Mine      MyState
	HostSetup HostSetup
	Conflict  *Conflict
}

// Effects requested by Apply. The caller performs them in order.
type Effect interface{ isEffect() }

type Notify struct {
	Text     string
	Severity notify.Severity
	Duration time.Duration
}

type PlayCue struct {
	Cue sound.Cue
}

type ClearNotifications struct{}

func (Notify) isEffect()             {}
func (PlayCue) isEffect()            {}
func (ClearNotifications) isEffect() {}

// Apply reconciles one inbound event into a new state. It never fails:
// events it does not understand leave the state untouched.
func Apply(s State, ev types.Event) ([]Effect, State) {
	next := s
	var effects []Effect

	switch e := ev.(type) {
	case types.StateSync:
		next.Shared = mergeShared(next.Shared, e.Shared)
		next.Mine = mergeMine(next.Mine, e.Mine)
		next.Phase = recompute(next.Phase, e.Shared)

	case types.ServerError:
		if code := conflictLobby(e, s.Viewer.LobbyCode); code != "" {
			effects = append(effects, Notify{
				Text:     fmt.Sprintf("You already have an active game in lobby %s. Leave or finish that game first.", code),
				Severity: notify.SeverityError,
				Duration: LongNotice,
			})
			next.Conflict = &Conflict{LobbyCode: code}
			if s.Phase == PhaseLoading {
				next.Phase = PhaseError
			}
			break
		}
		effects = append(effects, Notify{Text: "Error: " + e.Text, Severity: notify.SeverityError})
		if s.Phase == PhaseLoading {
			next.Phase = PhaseWaiting
		}

	case types.Info:
		if e.Text != "" {
			effects = append(effects, Notify{Text: e.Text, Severity: notify.SeverityInfo})
		}

	case types.Countdown:
		if s.Phase == PhaseError || gameLive(s) {
			break
		}
		next.Phase = PhaseCountdown
		if e.Seconds != nil {
			n := *e.Seconds
			next.Countdown = &n
		}
		effects = append(effects, PlayCue{Cue: sound.CueCountdown})

	case types.PlayerJoined:
		name := e.Name
		if name == "" {
			name = "A player"
		}
		effects = append(effects, Notify{Text: name + " joined the game.", Severity: notify.SeverityInfo})
		next = mergeAndRecompute(next, e.Shared)

	case types.GameStarted:
		text := e.Text
		if text == "" {
			text = "Game started!"
		}
		effects = append(effects,
			ClearNotifications{},
			Notify{Text: text, Severity: notify.SeveritySuccess},
			PlayCue{Cue: sound.CueGameStart},
		)
		if s.Phase == PhaseError {
			next = mergeAndRecompute(next, e.Shared)
			break
		}
		next.Shared.GameStarted = true
		next.Shared.GameEnded = false
		next.Shared = mergeShared(next.Shared, e.Shared)
		next.Phase = PhasePlaying
		if next.Shared.GameEnded {
			next.Phase = PhaseEnded
		}
		next.Countdown = nil
		next.Conflict = nil

	case types.PlayerEliminated:
		effects = append(effects,
			Notify{
				Text:     fmt.Sprintf("%s was eliminated. Reason: %s", nameOr(e.UserName), eliminationReason(e.Reason)),
				Severity: notify.SeverityWarning,
			},
			PlayCue{Cue: sound.CuePlayerEliminated},
		)
		next = mergeAndRecompute(next, e.Shared)

	case types.PlayerTimeout:
		effects = append(effects,
			Notify{Text: nameOr(e.UserName) + "'s turn timed out.", Severity: notify.SeverityWarning},
			PlayCue{Cue: sound.CuePlayerTimeout},
		)
		next = mergeAndRecompute(next, e.Shared)

	case types.TurnChange:
		if e.Shared != nil && e.Shared.CurrentPlayerID.Set && s.Viewer.UserID != "" &&
			e.Shared.CurrentPlayerID.Value == s.Viewer.UserID {
			effects = append(effects, PlayCue{Cue: sound.CueTurnChange})
		}
		next = mergeAndRecompute(next, e.Shared)

	case types.GuessMade:
		next = mergeAndRecompute(next, e.Shared)

	case types.MyGuessResult:
		next.Mine = mergeMine(next.Mine, e.Mine)
		if e.MaskedWord != "" {
			next.Shared.MaskedWord = e.MaskedWord
		}
		if e.Correct {
			effects = append(effects,
				Notify{Text: "Correct letter!", Severity: notify.SeveritySuccess, Duration: ShortNotice},
				PlayCue{Cue: sound.CueGuessCorrect},
			)
		} else {
			effects = append(effects,
				Notify{Text: "Incorrect letter.", Severity: notify.SeverityError, Duration: ShortNotice},
				PlayCue{Cue: sound.CueGuessIncorrect},
			)
		}

	case types.WordGuessIncorrect:
		next.Mine = mergeMine(next.Mine, e.Mine)
		effects = append(effects, Notify{Text: cmp.Or(e.Text, "Incorrect word."), Severity: notify.SeverityError})
		next = mergeAndRecompute(next, e.Shared)

	case types.GameOver:
		cue := sound.CueGameOverLose
		if e.Won() {
			cue = sound.CueGameOverWin
		}
		text := e.Text
		if text == "" {
			text = "Game over."
		}
		effects = append(effects,
			PlayCue{Cue: cue},
			Notify{Text: text, Severity: notify.SeverityInfo, Duration: LongNotice},
		)
		next.Shared = mergeShared(next.Shared, e.Shared)
		next.Shared.GameEnded = true
		next.Shared.GameStarted = false
		if e.Word != "" {
			next.Shared.Word = e.Word
		}
		next.Mine.IsMyTurn = false
		next.Countdown = nil
		if s.Phase != PhaseError {
			next.Phase = PhaseEnded
		}

	case types.CategoryAdded:
		effects = append(effects, Notify{Text: cmp.Or(e.Text, "New category added."), Severity: notify.SeveritySuccess})
		if e.Categories != nil {
			next.HostSetup = withCategories(next.HostSetup, e.Categories)
		}

	case types.Categories:
		next.HostSetup = withCategories(next.HostSetup, e.Categories)
		if e.Languages != nil {
			next.HostSetup.AvailableLanguages = slices.Clone(e.Languages)
		}

	case types.LanguageCategories:
		if e.Language != "" && next.HostSetup.Language != "" && e.Language != next.HostSetup.Language {
			// Reply to a language the host has since moved away from.
			break
		}
		next.HostSetup = withCategories(next.HostSetup, e.Categories)

	case types.PlayerLeft:
		if e.PlayerID == "" || e.PlayerID != s.Viewer.UserID {
			text := e.Text
			if text == "" {
				text = nameOr(e.Name) + " left the game."
			}
			effects = append(effects, Notify{Text: text, Severity: notify.SeverityWarning})
		}
		next = mergeAndRecompute(next, e.Shared)

	default:
		return nil, s
	}

	next.Shared = normalizeShared(next.Shared)
	next.Mine = normalizeMine(next.Mine, next.Shared.CurrentPlayerID, next.Viewer.UserID)
	return effects, next
}

// Open runs when the channel is ready. Without a user id the view cannot join
// and goes to the error phase; ok reports whether a join should be sent.
func Open(s State) (effects []Effect, next State, ok bool) {
	if s.Viewer.UserID == "" {
		effects, next = Fail(s, "Could not load your user data. Please refresh the page.")
		return effects, next, false
	}
	return nil, s, true
}

// Fail moves the view to the error phase with a user-facing message.
func Fail(s State, text string) ([]Effect, State) {
	next := s
	next.Phase = PhaseError
	next.Countdown = nil
	return []Effect{Notify{Text: text, Severity: notify.SeverityError}}, next
}

func mergeAndRecompute(s State, p *types.SharedStatePatch) State {
	if p == nil {
		return s
	}
	s.Shared = mergeShared(s.Shared, p)
	s.Phase = recompute(s.Phase, p)
	return s
}

func gameLive(s State) bool {
	return s.Phase == PhasePlaying && s.Shared.GameStarted && !s.Shared.GameEnded
}

func conflictLobby(e types.ServerError, current string) string {
	if e.ActiveGame == nil || e.ActiveGame.LobbyCode == "" || e.ActiveGame.LobbyCode == current {
		return ""
	}
	return e.ActiveGame.LobbyCode
}

func withCategories(h HostSetup, categories []string) HostSetup {
	h.AvailableCategories = slices.Clone(categories)
	if h.Category != "" && !slices.Contains(h.AvailableCategories, h.Category) {
		h.Category = ""
	}
	return h
}

func nameOr(name string) string {
	if name == "" {
		return "A player"
	}
	return name
}

func eliminationReason(reason string) string {
	if reason == "no attempts left" {
		return "no attempts left"
	}
	return "wrong word guess, no attempts left"
}
