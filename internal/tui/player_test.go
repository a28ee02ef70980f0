package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/catalog"
	"github.com/stemsi/exstem-player/internal/model"
	"github.com/stemsi/exstem-player/internal/session"
)

type fakeSource struct {
	subjects  []model.Subject
	sets      map[string]*model.QuestionSet
	listFails int
	loadFails int
	loads     int
}

func (f *fakeSource) List(context.Context) ([]model.Subject, error) {
	if f.listFails > 0 {
		f.listFails--
		return nil, &catalog.LoadError{Err: errors.New("catalog unreachable")}
	}
	return f.subjects, nil
}

func (f *fakeSource) Load(_ context.Context, id string) (*model.QuestionSet, error) {
	f.loads++
	if f.loadFails > 0 {
		f.loadFails--
		return nil, &catalog.LoadError{Subject: id, Err: errors.New("connection refused")}
	}
	set, ok := f.sets[id]
	if !ok {
		return nil, &catalog.LoadError{Subject: id, Err: catalog.ErrSubjectNotFound}
	}
	return set, nil
}

func physicsSet() *model.QuestionSet {
	q := func(id, text string, answer model.OptionLabel) model.Question {
		return model.Question{
			QID: model.QuestionID(id), Text: text,
			OptionA: "Joule", OptionB: "Newton", OptionC: "Watt", OptionD: "Pascal",
			Answer: answer, Marks: 2, Duration: 30, Subject: "Physics",
		}
	}
	return &model.QuestionSet{
		Subject: model.Subject{ID: "physics1", Name: "Physics"},
		Questions: []model.Question{
			q("1", "Unit of force?", model.OptionB),
			q("2", "Unit of energy?", model.OptionA),
			q("3", "Unit of power?", model.OptionC),
		},
	}
}

type harness struct {
	t       *testing.T
	player  *Player
	out     *bytes.Buffer
	src     *fakeSource
	tickers []*session.ManualTicker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:   t,
		out: &bytes.Buffer{},
		src: &fakeSource{
			subjects: []model.Subject{{ID: "physics1", Name: "Physics"}, {ID: "maths1", Name: "Mathematics"}},
			sets:     map[string]*model.QuestionSet{"physics1": physicsSet()},
		},
	}
	h.player = New(h.out, Options{
		Source: h.src,
		NewTicker: func() session.Ticker {
			tk := session.NewManualTicker()
			h.tickers = append(h.tickers, tk)
			return tk
		},
		Log: zerolog.Nop(),
	})
	return h
}

func (h *harness) keys(keys string) {
	h.t.Helper()
	for i := 0; i < len(keys); i++ {
		if h.player.HandleKey(context.Background(), keys[i]) {
			h.t.Fatalf("key %q quit the player", keys[i])
		}
	}
}

func (h *harness) ticker() *session.ManualTicker {
	h.t.Helper()
	if len(h.tickers) == 0 {
		h.t.Fatal("no ticker created")
	}
	return h.tickers[len(h.tickers)-1]
}

// frame returns the most recently drawn screen.
func (h *harness) frame() string {
	s := h.out.String()
	if i := strings.LastIndex(s, clearScreen); i >= 0 {
		s = s[i+len(clearScreen):]
	}
	return s
}

func (h *harness) expect(wants ...string) {
	h.t.Helper()
	f := h.frame()
	for _, w := range wants {
		if !strings.Contains(f, w) {
			h.t.Errorf("screen missing %q:\n%s", w, f)
		}
	}
}

func TestFullExam(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.expect("1) Physics", "2) Mathematics")

	h.keys("1")
	h.expect("Physics Exam", "Total Questions:    3", "Total Time:         01:30", "Marks per Question: 2")

	h.keys("\r")
	h.expect("Question 1 of 3", "Time Remaining: 01:30", "Q1", "Unit of force?")

	h.keys("b")
	h.expect("[x] B. Newton", "Answered: 1 / 3")

	h.keys("n")
	h.expect("Question 2 of 3", "Unit of energy?")

	h.keys("j3\r")
	h.expect("Question 3 of 3", "[s] submit exam")

	h.keys("cs")
	h.expect("Exam Results: Physics", "Correct:      2", "Incorrect:    0", "Unattempted:  1", "Score:        66.7%", "Total Marks: 4 / 3")

	if h.ticker().Armed() {
		t.Error("ticker still armed after submit")
	}
}

func TestSubmitOnlyOnLastQuestion(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.keys("1\rs")

	if got := h.player.Session().Phase(); got != model.PhaseInProgress {
		t.Errorf("phase after s on first question = %s, want IN_PROGRESS", got)
	}
}

func TestTimerCountsDownAndTurnsUrgent(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.keys("1\r")

	h.ticker().Fire(29)
	h.expect("Time Remaining: 01:01")
	if strings.Contains(h.frame(), "01:01 !") {
		t.Error("timer urgent above a minute")
	}

	h.ticker().Fire(1)
	h.expect("Time Remaining: 01:00 !")
}

func TestTimeoutThenResults(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.keys("1\ra")

	if fired := h.ticker().Fire(200); fired != 90 {
		t.Errorf("fired %d ticks, want 90", fired)
	}
	h.expect("Time is up.", "1 of 3 questions")

	h.keys("abcd")
	if got := h.player.Session().Phase(); got != model.PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", got)
	}

	h.keys("\r")
	h.expect("Exam Results: Physics", "Correct:      0", "Incorrect:    1", "Unattempted:  2", "Total Marks: 0 / 3")
}

func TestJumpOutOfRangeStays(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.keys("1\rn")

	h.keys("j9")
	h.expect("Go to question #: 9_")
	h.keys("\r")
	h.expect("Question 2 of 3")
	if strings.Contains(h.frame(), "Go to question #") {
		t.Error("jump prompt still shown")
	}

	h.keys("j1\x7f3\x1b")
	h.expect("Question 2 of 3")
	h.keys("j1\r")
	h.expect("Question 1 of 3")
}

func TestLoadFailureOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.src.loadFails = 1
	h.player.ShowSubjects(context.Background())

	h.keys("1")
	h.expect("Could not load Physics", "connection refused", "[r] retry")

	var le *catalog.LoadError
	if !errors.As(h.player.Err(), &le) || le.Subject != "physics1" {
		t.Errorf("Err() = %v, want *LoadError for physics1", h.player.Err())
	}
	if h.player.Session() != nil {
		t.Error("session attached after failed load")
	}

	h.keys("r")
	h.expect("Physics Exam")
	if h.src.loads != 2 {
		t.Errorf("loads = %d, want 2", h.src.loads)
	}
}

func TestMissingSubjectCanGoBack(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())

	h.keys("2")
	h.expect("Could not load Mathematics", "subject not found")

	h.keys("b")
	h.expect("1) Physics")
}

func TestListFailureRetry(t *testing.T) {
	h := newHarness(t)
	h.src.listFails = 1

	h.player.ShowSubjects(context.Background())
	h.expect("Could not load the subject list", "catalog unreachable")

	h.keys("1")
	if h.src.loads != 0 {
		t.Error("digit on the error screen loaded a subject")
	}

	h.keys("r")
	h.expect("1) Physics")
}

func TestRestartAndBackFromResults(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.keys("1\rj3\rs")
	h.expect("Exam Results")

	h.keys("r")
	h.expect("Physics Exam", "Total Questions:    3")
	sess := h.player.Session()
	if got := sess.Phase(); got != model.PhaseNotStarted {
		t.Fatalf("phase after restart = %s", got)
	}

	h.keys("\r")
	tk := h.ticker()
	if !tk.Armed() {
		t.Fatal("ticker not armed after start")
	}

	h.keys("nns")
	h.keys("b")
	h.expect("1) Physics")
	if tk.Armed() {
		t.Error("ticker still armed after leaving the exam")
	}
	if h.player.Session() != nil {
		t.Error("session still attached after going back")
	}
}

func TestRestartFromTimeUp(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	h.keys("1\ra")
	h.ticker().Fire(90)
	h.expect("Time is up.", "[r] restart")

	h.keys("r")
	h.expect("Physics Exam", "Total Time:         01:30")
	if got := h.player.Session().Phase(); got != model.PhaseNotStarted {
		t.Fatalf("phase after restart = %s, want NOT_STARTED", got)
	}

	h.keys("\r")
	h.expect("Question 1 of 3", "Time Remaining: 01:30", "Answered: 0 / 3")
}

func TestDefaultTickerIsWallClock(t *testing.T) {
	p := New(io.Discard, Options{Source: &fakeSource{}, Log: zerolog.Nop()})
	if _, ok := p.newTicker().(*session.WallTicker); !ok {
		t.Errorf("default ticker = %T, want *session.WallTicker", p.newTicker())
	}
}

func TestQuitKeys(t *testing.T) {
	h := newHarness(t)
	h.player.ShowSubjects(context.Background())
	for _, k := range []byte{'q', keyCtrlC} {
		if !h.player.HandleKey(context.Background(), k) {
			t.Errorf("key %q did not quit", k)
		}
	}
}

func TestRunScriptedSession(t *testing.T) {
	h := newHarness(t)
	script := "1\r" + "b" + "\x1b[C" + "\x1b[C" + "c" + "\x1b[D" + "\x1b[C" + "s"

	if err := h.player.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"Exam Results: Physics", "Correct:      2", "Total Marks: 4 / 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if h.player.Session() != nil {
		t.Error("session still attached after Run returned")
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	h := newHarness(t)
	if err := h.player.Run(context.Background(), strings.NewReader("1\rq1")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.src.loads != 1 {
		t.Errorf("loads = %d, keys after q were processed", h.src.loads)
	}
	if h.ticker().Armed() {
		t.Error("ticker armed after quit")
	}
}

func TestRunReturnsWhenCancelledWithoutInput(t *testing.T) {
	h := newHarness(t)
	in, keys := io.Pipe()
	defer keys.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- h.player.Run(ctx, in) }()

	if _, err := keys.Write([]byte("1\r")); err != nil {
		t.Fatalf("write keys: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if sess := h.player.Session(); sess != nil && sess.Phase() == model.PhaseInProgress {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("exam never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if h.player.Session() != nil {
		t.Error("session still attached after cancel")
	}
	if h.ticker().Armed() {
		t.Error("ticker armed after cancel")
	}
}
