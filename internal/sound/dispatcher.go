package sound

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Cue is a symbolic sound name requested by the reconciler.
type Cue string

const (
	CueCountdown        Cue = "countdown"
	CueGameStart        Cue = "gameStart"
	CueTurnChange       Cue = "turnChange"
	CuePlayerTimeout    Cue = "playerTimeout"
	CueGuessCorrect     Cue = "guessCorrect"
	CueGuessIncorrect   Cue = "guessIncorrect"
	CuePlayerEliminated Cue = "playerEliminated"
	CueGameOverWin      Cue = "gameOverWin"
	CueGameOverLose     Cue = "gameOverLose"
)

// Cues lists every cue the game requests.
var Cues = []Cue{
	CueCountdown, CueGameStart, CueTurnChange, CuePlayerTimeout,
	CueGuessCorrect, CueGuessIncorrect, CuePlayerEliminated,
	CueGameOverWin, CueGameOverLose,
}

// Clip is one loaded sound.
type Clip interface {
	Rewind() error
	Play() error
}

// Loader builds the clip table. It runs at most once per Dispatcher.
type Loader func() (map[Cue]Clip, error)

// Player plays cues.
type Player interface {
	Play(cue Cue)
}

// Dispatcher plays cues when sound is enabled. Playback failures are logged and
// swallowed.
type Dispatcher struct {
	load Loader
	log  *zap.Logger

	once  sync.Once
	clips map[Cue]Clip

	mu      sync.Mutex
	enabled bool
}

func NewDispatcher(load Loader, enabled bool, log *zap.Logger) *Dispatcher {
	return &Dispatcher{load: load, enabled: enabled, log: log}
}

func (d *Dispatcher) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	d.mu.Unlock()
}

func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Play restarts the cue's clip from the beginning.
func (d *Dispatcher) Play(cue Cue) {
	if !d.Enabled() {
		return
	}
	clip, ok := d.table()[cue]
	if !ok {
		d.log.Debug("unknown sound cue", zap.String("cue", string(cue)))
		return
	}
	if err := clip.Rewind(); err != nil {
		d.log.Warn("rewind sound", zap.String("cue", string(cue)), zap.Error(err))
	}
	if err := clip.Play(); err != nil {
		d.log.Warn("play sound", zap.String("cue", string(cue)), zap.Error(err))
	}
}

func (d *Dispatcher) table() map[Cue]Clip {
	d.once.Do(func() {
		if d.load == nil {
			return
		}
		clips, err := d.load()
		if err != nil {
			d.log.Warn("load sounds", zap.Error(err))
		}
		d.clips = clips
	})
	return d.clips
}

// BellClip rings the terminal bell.
type BellClip struct {
	W    io.Writer
	Name Cue
}

func (BellClip) Rewind() error { return nil }

func (b BellClip) Play() error {
	_, err := fmt.Fprintf(b.W, "\a")
	return err
}

// Bells returns a Loader that maps every cue to a BellClip on w.
func Bells(w io.Writer) Loader {
	return func() (map[Cue]Clip, error) {
		clips := make(map[Cue]Clip, len(Cues))
		for _, cue := range Cues {
			clips[cue] = BellClip{W: w, Name: cue}
		}
		return clips, nil
	}
}
