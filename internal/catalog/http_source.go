package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/model"
	"github.com/stemsi/exstem-player/internal/response"
)

// maxPayloadBytes bounds a catalog response body.
const maxPayloadBytes = 8 << 20

// HTTPSource fetches question sets from a catalogd instance.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPSource creates a source for the catalog service at baseURL.
// A nil client means http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client, log zerolog.Logger) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.With().Str("component", "http_catalog").Logger(),
	}
}

type envelope[T any] struct {
	Data  *T                  `json:"data"`
	Error *response.ErrorBody `json:"error,omitempty"`
}

type subjectList struct {
	Subjects []model.Subject `json:"subjects"`
}

func (s *HTTPSource) List(ctx context.Context) ([]model.Subject, error) {
	var out subjectList
	if err := s.get(ctx, "/api/v1/subjects", &out); err != nil {
		return nil, fail("", err)
	}
	return out.Subjects, nil
}

func (s *HTTPSource) Load(ctx context.Context, subjectID string) (*model.QuestionSet, error) {
	var payload model.SubjectPayload
	if err := s.get(ctx, "/api/v1/subjects/"+url.PathEscape(subjectID), &payload); err != nil {
		return nil, fail(subjectID, err)
	}

	set := &model.QuestionSet{Subject: payload.Subject, Questions: payload.Questions}
	if err := Validate(set); err != nil {
		return nil, fail(subjectID, err)
	}
	return set, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		r = brotli.NewReader(resp.Body)
	}
	body, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var env envelope[json.RawMessage]
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode != http.StatusOK {
		s.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Catalog request failed")
		code := response.ErrCode("")
		if decodeErr == nil && env.Error != nil {
			code = env.Error.Code
		}
		switch {
		case resp.StatusCode == http.StatusNotFound || code == response.ErrNotFound:
			return ErrSubjectNotFound
		case code == response.ErrInvalidQuestionSet:
			return ErrMalformedQuestionSet
		default:
			return fmt.Errorf("catalog returned %s", resp.Status)
		}
	}

	if decodeErr != nil || env.Data == nil {
		return fmt.Errorf("%w: unreadable catalog response", ErrMalformedQuestionSet)
	}
	if err := json.Unmarshal(*env.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedQuestionSet, err)
	}
	return nil
}
