package catalog

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/questions"
)

const indexJSON = `{"subjects":[
	{"id":"physics1","name":"Physics","file":"physics1.json"},
	{"id":"maths1","name":"Mathematics"},
	{"id":"chem1","name":"Chemistry","file":"chem1.json"},
	{"id":"bio1","name":"Biology","file":"bio1.json"}
]}`

const physicsJSON = `{"questions":[
	{"qid":1,"question":"Unit of force?","optiona":"J","optionb":"N","optionc":"W","optiond":"Pa","answer":"b","marks":4,"duration":60},
	{"qid":2,"question":"Which is a vector?","optiona":"speed","optionb":"mass","optionc":"displacement","optiond":"energy","answer":"c","marks":4,"duration":45}
]}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		IndexFile:       {Data: []byte(indexJSON)},
		"physics1.json": {Data: []byte(physicsJSON)},
		"maths1.json":   {Data: []byte(physicsJSON)},
		"bio1.json":     {Data: []byte(`{"questions":[{"qid":1,"answer":"z"}]}`)},
	}
}

func TestFSSourceList(t *testing.T) {
	src := NewFSSource(testFS(), zerolog.Nop())
	subjects, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(subjects) != 4 {
		t.Fatalf("len(subjects) = %d, want 4", len(subjects))
	}
	if subjects[0].ID != "physics1" || subjects[0].Name != "Physics" {
		t.Errorf("subjects[0] = %+v", subjects[0])
	}
}

func TestFSSourceLoad(t *testing.T) {
	src := NewFSSource(testFS(), zerolog.Nop())

	tests := []struct {
		name    string
		subject string
		wantErr error
		wantLen int
	}{
		{name: "explicit file", subject: "physics1", wantLen: 2},
		{name: "default file name", subject: "maths1", wantLen: 2},
		{name: "unknown subject", subject: "history1", wantErr: ErrSubjectNotFound},
		{name: "file missing", subject: "chem1", wantErr: ErrSubjectNotFound},
		{name: "invalid file", subject: "bio1", wantErr: ErrMalformedQuestionSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := src.Load(context.Background(), tt.subject)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				var le *LoadError
				if !errors.As(err, &le) || le.Subject != tt.subject {
					t.Errorf("Load() error = %#v, want *LoadError for %q", err, tt.subject)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(set.Questions) != tt.wantLen {
				t.Errorf("len(questions) = %d, want %d", len(set.Questions), tt.wantLen)
			}
			if set.Subject.ID != tt.subject {
				t.Errorf("subject = %q, want %q", set.Subject.ID, tt.subject)
			}
		})
	}
}

func TestFSSourceMissingIndex(t *testing.T) {
	src := NewFSSource(fstest.MapFS{}, zerolog.Nop())
	if _, err := src.List(context.Background()); err == nil {
		t.Error("List() without index succeeded")
	}
	var le *LoadError
	if _, err := src.Load(context.Background(), "physics1"); !errors.As(err, &le) {
		t.Errorf("Load() error = %v, want *LoadError", err)
	}
}

func TestFSSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewFSSource(testFS(), zerolog.Nop())
	if _, err := src.Load(ctx, "physics1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestEmbeddedCatalogLoads(t *testing.T) {
	src := NewFSSource(questions.FS, zerolog.Nop())
	subjects, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(subjects) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	for _, s := range subjects {
		set, err := src.Load(context.Background(), s.ID)
		if err != nil {
			t.Errorf("Load(%q) error = %v", s.ID, err)
			continue
		}
		if s.TotalQuestions != 0 && s.TotalQuestions != len(set.Questions) {
			t.Errorf("%s: index says %d questions, file has %d", s.ID, s.TotalQuestions, len(set.Questions))
		}
	}
}
