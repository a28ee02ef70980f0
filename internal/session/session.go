// Package session implements the timed exam session state machine.
//
// A Session moves NOT_STARTED → IN_PROGRESS → FINISHED → RESULTS_SHOWN and
// back to NOT_STARTED on restart. Every transition method reports whether
// it was applied; calling one outside its phase is a silent no-op.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/model"
	"github.com/stemsi/exstem-player/internal/scoring"
)

// ErrEmptyQuestionSet is returned by New for a nil or empty question set.
var ErrEmptyQuestionSet = errors.New("question set has no questions")

// Observer receives a snapshot after every applied transition. It runs
// outside the session lock and may call back into the session.
type Observer func(model.Snapshot)

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn to be called after every applied transition.
func WithObserver(fn Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, fn)
	}
}

// WithID overrides the generated session id.
func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Session is one candidate's run through a question set.
type Session struct {
	id        uuid.UUID
	set       *model.QuestionSet
	ticker    Ticker
	log       zerolog.Logger
	observers []Observer

	mu        sync.Mutex
	phase     model.Phase
	index     int
	answers   model.AnswerRecord
	remaining int
	total     int
	result    *model.Result
	gen       uint64 // bumped on every arm/disarm; ticks from older armings are dropped
	closed    bool
}

// New attaches a session to set. The session owns ticker from now on.
func New(set *model.QuestionSet, ticker Ticker, log zerolog.Logger, opts ...Option) (*Session, error) {
	if set == nil || len(set.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	if ticker == nil {
		ticker = NewWallTicker(0)
	}

	s := &Session{
		id:      uuid.New(),
		set:     set,
		ticker:  ticker,
		phase:   model.PhaseNotStarted,
		answers: model.AnswerRecord{},
		total:   set.TotalSeconds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = log.With().
		Str("component", "exam_session").
		Str("session_id", s.id.String()).
		Logger()

	return s, nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Questions returns a copy of the attached questions in exam order.
func (s *Session) Questions() []model.Question {
	out := make([]model.Question, len(s.set.Questions))
	copy(out, s.set.Questions)
	return out
}

// Start begins the exam: remaining time becomes the sum of all question
// durations and the ticker is armed.
func (s *Session) Start() bool {
	return s.apply("start", func() bool {
		if s.closed || s.phase != model.PhaseNotStarted {
			return false
		}
		s.remaining = s.total
		s.phase = model.PhaseInProgress
		s.armLocked()

		s.log.Info().
			Int("questions", len(s.set.Questions)).
			Int("total_seconds", s.total).
			Msg("Exam started")
		return true
	})
}

// Tick removes one second from the clock. Reaching zero finishes the exam.
func (s *Session) Tick() bool {
	return s.tick(0)
}

// tick applies a tick from arming gen. gen 0 means a direct call.
func (s *Session) tick(gen uint64) bool {
	return s.apply("tick", func() bool {
		if gen != 0 && gen != s.gen {
			return false
		}
		if s.phase != model.PhaseInProgress {
			return false
		}
		s.remaining--
		if s.remaining <= 0 {
			s.remaining = 0
			s.finishLocked()
			s.log.Info().Int("correct", s.result.Correct).Msg("Time is up, exam auto-submitted")
		}
		return true
	})
}

// SelectAnswer records label for the question qid, replacing any earlier pick.
func (s *Session) SelectAnswer(qid model.QuestionID, label model.OptionLabel) bool {
	return s.apply("select_answer", func() bool {
		if s.phase != model.PhaseInProgress || !label.Valid() || s.set.IndexOf(qid) < 0 {
			return false
		}
		s.answers[qid] = label
		return true
	})
}

// SelectCurrent records label for the question at the current index.
func (s *Session) SelectCurrent(label model.OptionLabel) bool {
	return s.apply("select_answer", func() bool {
		if s.phase != model.PhaseInProgress || !label.Valid() {
			return false
		}
		s.answers[s.set.Questions[s.index].QID] = label
		return true
	})
}

// GoTo jumps to the question at index i. Out-of-range indexes are ignored.
func (s *Session) GoTo(i int) bool {
	return s.apply("go_to", func() bool {
		if s.phase != model.PhaseInProgress || i < 0 || i >= len(s.set.Questions) {
			return false
		}
		s.index = i
		return true
	})
}

// Next moves forward one question; there is no wraparound.
func (s *Session) Next() bool {
	return s.apply("next", func() bool {
		if s.phase != model.PhaseInProgress || s.index >= len(s.set.Questions)-1 {
			return false
		}
		s.index++
		return true
	})
}

// Prev moves back one question; there is no wraparound.
func (s *Session) Prev() bool {
	return s.apply("prev", func() bool {
		if s.phase != model.PhaseInProgress || s.index <= 0 {
			return false
		}
		s.index--
		return true
	})
}

// Submit ends the exam on the candidate's request and shows the results.
func (s *Session) Submit() bool {
	return s.apply("submit", func() bool {
		if s.phase != model.PhaseInProgress {
			return false
		}
		s.finishLocked()
		s.phase = model.PhaseResultsShown

		s.log.Info().
			Int("correct", s.result.Correct).
			Int("attempted", s.result.Attempted).
			Int("remaining_seconds", s.remaining).
			Msg("Exam submitted")
		return true
	})
}

// ShowResults reveals the results of an exam that finished on timeout.
func (s *Session) ShowResults() bool {
	return s.apply("show_results", func() bool {
		if s.phase != model.PhaseFinished {
			return false
		}
		s.phase = model.PhaseResultsShown
		return true
	})
}

// Restart returns the session to the state it had right after attach.
// It is accepted in every phase.
func (s *Session) Restart() bool {
	return s.apply("restart", func() bool {
		s.disarmLocked()
		s.phase = model.PhaseNotStarted
		s.index = 0
		s.answers = model.AnswerRecord{}
		s.remaining = 0
		s.result = nil
		return true
	})
}

// Close disarms the ticker for good. A closed session cannot be started again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	s.closed = true
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Phase returns the current phase.
func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the score summary once the results are shown.
func (s *Session) Result() (model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseResultsShown || s.result == nil {
		return model.Result{}, false
	}
	return *s.result, true
}

// ─── internals ─────────────────────────────────────────────────────────

// apply runs fn under the lock and notifies observers if it was applied.
func (s *Session) apply(name string, fn func() bool) bool {
	s.mu.Lock()
	applied := fn()
	phase := s.phase
	var snap model.Snapshot
	if applied {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !applied {
		s.log.Debug().Str("transition", name).Str("phase", string(phase)).Msg("Transition ignored")
		return false
	}
	for _, obs := range s.observers {
		obs(snap)
	}
	return true
}

func (s *Session) finishLocked() {
	s.phase = model.PhaseFinished
	s.disarmLocked()
	r := scoring.Score(s.set, s.answers)
	s.result = &r
}

func (s *Session) armLocked() {
	s.ticker.Disarm()
	s.gen++
	gen := s.gen
	s.ticker.Arm(func() { s.tick(gen) })
}

func (s *Session) disarmLocked() {
	s.ticker.Disarm()
	s.gen++
}

func (s *Session) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		SessionID:        s.id,
		Phase:            s.phase,
		Subject:          s.set.SubjectName(),
		CurrentIndex:     s.index,
		QuestionCount:    len(s.set.Questions),
		CurrentQuestion:  s.set.Questions[s.index],
		Answers:          s.answers.Clone(),
		RemainingSeconds: s.remaining,
		TotalSeconds:     s.total,
		MarksPerQuestion: s.set.MarksPerQuestion(),
	}
	if s.phase == model.PhaseResultsShown && s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
