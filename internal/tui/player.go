// Package tui drives exam sessions from a raw-mode terminal. Keys map to
// session transitions and every snapshot the session publishes is redrawn.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/catalog"
	"github.com/stemsi/exstem-player/internal/model"
	"github.com/stemsi/exstem-player/internal/session"
)

const (
	keyCtrlC     = 3
	keyEnter     = '\r'
	keyNewline   = '\n'
	keyEsc       = 27
	keyBackspace = 127

	maxJumpDigits = 4
)

type screen int

const (
	screenSubjects screen = iota
	screenListError
	screenLoadError
	screenExam
)

// Options configures a Player.
type Options struct {
	Source catalog.Source
	// NewTicker builds the ticker for each exam session. Defaults to a
	// one-second WallTicker.
	NewTicker   func() session.Ticker
	LoadTimeout time.Duration
	Width       int
	Color       bool
	Log         zerolog.Logger
}

// Player is the terminal front end: subject picker, exam screens and
// results.
type Player struct {
	src         catalog.Source
	newTicker   func() session.Ticker
	loadTimeout time.Duration
	width       int
	st          style
	log         zerolog.Logger

	// mu guards everything below and serializes writes to out. It is never
	// held while calling into the session, whose observers take it.
	mu        sync.Mutex
	out       io.Writer
	screen    screen
	subjects  []model.Subject
	selected  *model.Subject
	lastErr   error
	sess      *session.Session
	questions []model.Question
	jump      *string
}

// New creates a Player that draws to out.
func New(out io.Writer, opts Options) *Player {
	p := &Player{
		src:         opts.Source,
		newTicker:   opts.NewTicker,
		loadTimeout: opts.LoadTimeout,
		width:       opts.Width,
		st:          style{color: opts.Color},
		log:         opts.Log.With().Str("component", "player").Logger(),
		out:         out,
	}
	if p.newTicker == nil {
		p.newTicker = func() session.Ticker { return session.NewWallTicker(time.Second) }
	}
	if p.loadTimeout <= 0 {
		p.loadTimeout = 10 * time.Second
	}
	if p.width <= 0 {
		p.width = 80
	}
	return p
}

// Run shows the subject picker and processes keys from in until the user
// quits, in reaches EOF or ctx is cancelled.
func (p *Player) Run(ctx context.Context, in io.Reader) error {
	defer p.shutdown()
	done := make(chan struct{})
	defer close(done)

	p.ShowSubjects(ctx)

	keys := readKeys(in, done)
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Player cancelled")
			return nil
		case ev := <-keys:
			if ev.err != nil {
				if errors.Is(ev.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("read key: %w", ev.err)
			}
			if p.HandleKey(ctx, ev.key) {
				return nil
			}
		}
	}
}

type keyEvent struct {
	key byte
	err error
}

// readKeys forwards key presses from in until a read fails or done is
// closed. A Read already blocked on in is left behind when done closes.
func readKeys(in io.Reader, done <-chan struct{}) <-chan keyEvent {
	events := make(chan keyEvent)
	go func() {
		r := bufio.NewReader(in)
		for {
			key, err := readKey(r)
			select {
			case events <- keyEvent{key: key, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return events
}

// readKey reads one key press. Left and right arrows arrive as escape
// sequences and map to p and n.
func readKey(r *bufio.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil || b != keyEsc || r.Buffered() < 2 {
		return b, err
	}
	next, _ := r.Peek(2)
	if next[0] != '[' {
		return b, nil
	}
	_, _ = r.Discard(2)
	switch next[1] {
	case 'C':
		return 'n', nil
	case 'D':
		return 'p', nil
	}
	return 0, nil
}

// ShowSubjects lists the catalog and draws the picker, or the list error.
func (p *Player) ShowSubjects(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	subjects, err := p.src.List(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
	if err != nil {
		p.log.Error().Err(err).Msg("Failed to list subjects")
		p.screen = screenListError
		p.lastErr = err
		p.draw(renderError("Could not load the subject list", err, "[r] retry  [q] quit", p.st))
		return
	}
	p.screen = screenSubjects
	p.subjects = subjects
	p.draw(renderSubjects(subjects, p.st))
}

// HandleKey applies one key press and reports whether the player should exit.
func (p *Player) HandleKey(ctx context.Context, key byte) (quit bool) {
	if key == keyCtrlC || key == 'q' {
		return true
	}

	p.mu.Lock()
	scr, sess := p.screen, p.sess
	p.mu.Unlock()

	switch scr {
	case screenSubjects:
		p.onSubjectKey(ctx, key)
	case screenListError:
		if key == 'r' {
			p.ShowSubjects(ctx)
		}
	case screenLoadError:
		switch key {
		case 'r':
			p.mu.Lock()
			subject := p.selected
			p.mu.Unlock()
			if subject != nil {
				p.load(ctx, *subject)
			}
		case 'b':
			p.ShowSubjects(ctx)
		}
	case screenExam:
		p.onExamKey(ctx, sess, key)
	}
	return false
}

func (p *Player) onSubjectKey(ctx context.Context, key byte) {
	if key < '1' || key > '9' {
		return
	}
	i := int(key - '1')

	p.mu.Lock()
	if i >= len(p.subjects) {
		p.mu.Unlock()
		return
	}
	subject := p.subjects[i]
	p.mu.Unlock()

	p.load(ctx, subject)
}

// load fetches a question set once and attaches a new session to it. A
// failure leaves the player on the error screen with retry offered.
func (p *Player) load(ctx context.Context, subject model.Subject) {
	ctx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	p.mu.Lock()
	p.selected = &subject
	p.draw([]string{p.st.dim("Loading " + subject.Name + "...")})
	p.mu.Unlock()

	set, err := p.src.Load(ctx, subject.ID)
	if err == nil {
		var sess *session.Session
		sess, err = session.New(set, p.newTicker(), p.log, session.WithObserver(p.onSnapshot))
		if err == nil {
			p.attach(sess)
			return
		}
	}

	p.log.Warn().Err(err).Str("subject", subject.ID).Msg("Question set unavailable")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screen = screenLoadError
	p.lastErr = err
	p.draw(renderError("Could not load "+subject.Name, err, "[r] retry  [b] subjects  [q] quit", p.st))
}

func (p *Player) attach(sess *session.Session) {
	p.mu.Lock()
	p.sess = sess
	p.questions = sess.Questions()
	p.screen = screenExam
	p.jump = nil
	p.mu.Unlock()

	p.log.Info().Str("session_id", sess.ID().String()).Int("questions", len(p.questions)).Msg("Exam session attached")
	p.redraw()
}

func (p *Player) onExamKey(ctx context.Context, sess *session.Session, key byte) {
	if sess == nil {
		return
	}
	snap := sess.Snapshot()

	switch snap.Phase {
	case model.PhaseNotStarted:
		switch key {
		case keyEnter, keyNewline, 's':
			sess.Start()
		case 'b':
			p.detach()
			p.ShowSubjects(ctx)
		}

	case model.PhaseInProgress:
		if p.jumping() {
			p.onJumpKey(sess, key)
			return
		}
		switch key {
		case 'a', 'b', 'c', 'd':
			sess.SelectCurrent(model.OptionLabel([]byte{key}))
		case 'n':
			sess.Next()
		case 'p':
			sess.Prev()
		case 'j':
			empty := ""
			p.mu.Lock()
			p.jump = &empty
			p.mu.Unlock()
			p.redraw()
		case 's':
			if snap.CurrentIndex == snap.QuestionCount-1 {
				sess.Submit()
			}
		}

	case model.PhaseFinished:
		switch key {
		case keyEnter, keyNewline, 'v':
			sess.ShowResults()
		case 'r':
			sess.Restart()
		}

	case model.PhaseResultsShown:
		switch key {
		case 'r':
			sess.Restart()
		case 'b':
			p.detach()
			p.ShowSubjects(ctx)
		}
	}
}

func (p *Player) jumping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jump != nil
}

func (p *Player) onJumpKey(sess *session.Session, key byte) {
	p.mu.Lock()
	digits := *p.jump
	switch {
	case key >= '0' && key <= '9':
		if len(digits) < maxJumpDigits {
			digits += string(key)
		}
		p.jump = &digits
		p.mu.Unlock()
		p.redraw()
		return
	case key == keyBackspace && digits != "":
		digits = digits[:len(digits)-1]
		p.jump = &digits
		p.mu.Unlock()
		p.redraw()
		return
	case key == keyEsc || key == 'j':
		p.jump = nil
		p.mu.Unlock()
		p.redraw()
		return
	case key == keyEnter || key == keyNewline:
		p.jump = nil
		p.mu.Unlock()
		n, err := strconv.Atoi(digits)
		if err != nil || !sess.GoTo(n-1) {
			p.redraw()
		}
		return
	}
	p.mu.Unlock()
}

// onSnapshot is the session observer. Snapshots from a detached session
// are ignored.
func (p *Player) onSnapshot(snap model.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen != screenExam || p.sess == nil || snap.SessionID != p.sess.ID() {
		return
	}
	if snap.Phase != model.PhaseInProgress {
		p.jump = nil
	}
	p.drawSnapshot(snap)
}

func (p *Player) redraw() {
	p.mu.Lock()
	sess := p.sess
	p.mu.Unlock()
	if sess == nil {
		return
	}
	snap := sess.Snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == sess {
		p.drawSnapshot(snap)
	}
}

func (p *Player) drawSnapshot(snap model.Snapshot) {
	switch snap.Phase {
	case model.PhaseNotStarted:
		p.draw(renderStart(snap, p.st))
	case model.PhaseInProgress:
		p.draw(renderQuestion(snap, p.questions, p.jump, p.width, p.st))
	case model.PhaseFinished:
		p.draw(renderTimeUp(snap, p.st))
	case model.PhaseResultsShown:
		p.draw(renderResults(snap, p.st))
	}
}

// draw writes a full frame. Callers hold p.mu.
func (p *Player) draw(lines []string) {
	if _, err := io.WriteString(p.out, frame(lines)); err != nil {
		p.log.Debug().Err(err).Msg("Draw failed")
	}
}

// detach closes the current session so its ticker stops.
func (p *Player) detach() {
	p.mu.Lock()
	sess := p.sess
	p.sess = nil
	p.questions = nil
	p.jump = nil
	p.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

func (p *Player) shutdown() {
	p.detach()
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, "\x1b[0m\r\n")
}

// Session returns the attached exam session, or nil.
func (p *Player) Session() *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

// Err returns the last load failure shown to the user.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
