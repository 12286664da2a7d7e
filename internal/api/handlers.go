package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/quizmastery/internal/quiz"
)

// publicQuestion is a question as served to a quiz taker: no answer key.
type publicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type generateResponse struct {
	Questions []publicQuestion `json:"questions"`
}

type submitRequest struct {
	Answers          []quiz.Answer `json:"answers"`
	CheatingDetected bool          `json:"cheatingDetected"`
}

type recordView struct {
	ID        string          `json:"id"`
	Questions []quiz.Question `json:"questions"`
	Answers   []quiz.Answer   `json:"userAnswers"`
	Score     int             `json:"score"`
	Passed    bool            `json:"passed"`
	CreatedAt time.Time       `json:"createdAt"`
}

// maxSubmitBytes caps a submit body. Ten answers fit in well under 1 KiB.
const maxSubmitBytes = 64 << 10

// topicParam returns the decoded topic segment. chi matches against
// RawPath when the request carries one, leaving the param still escaped;
// otherwise the param comes from the already decoded Path and is used as is.
func topicParam(r *http.Request) string {
	raw := chi.URLParam(r, "topic")
	if r.URL.RawPath == "" {
		return raw
	}
	if t, err := url.PathUnescape(raw); err == nil {
		return t
	}
	return raw
}

// fail logs err and writes the matching status. Server errors get the
// generic msg; client errors keep their own message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(msg,
			"path", r.URL.Path,
			"user", UserFrom(r.Context()),
			"error", err)
		writeMessage(w, status, msg)
		return
	}
	writeMessage(w, status, err.Error())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	qs, err := s.engine.GenerateOrResume(r.Context(), UserFrom(r.Context()), topicParam(r))
	switch {
	case err == nil:
	case statusFor(err) == http.StatusForbidden:
		writeMessage(w, http.StatusForbidden, "You have already mastered this topic.")
		return
	default:
		s.fail(w, r, err, "Failed to generate quiz questions")
		return
	}

	resp := generateResponse{Questions: make([]publicQuestion, len(qs))}
	for i, q := range qs {
		resp.Questions[i] = publicQuestion{Question: q.Text, Options: q.Options}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBytes)
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.engine.Submit(r.Context(), UserFrom(r.Context()), topicParam(r), req.Answers, req.CheatingDetected)
	switch {
	case err == nil:
	case statusFor(err) == http.StatusNotFound:
		writeMessage(w, http.StatusNotFound, "No active quiz session found")
		return
	default:
		s.fail(w, r, err, "Failed to submit quiz")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cleanup(r.Context(), UserFrom(r.Context()), topicParam(r)); err != nil {
		s.fail(w, r, err, "Failed to clean up quiz session")
		return
	}
	writeMessage(w, http.StatusOK, "Quiz session cleaned up")
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	s.evaluation(w, r, "No assessment found for this topic", "Failed to fetch assessment evaluation")
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.evaluation(w, r, "No completed quiz session found", "Failed to fetch quiz session")
}

func (s *Server) evaluation(w http.ResponseWriter, r *http.Request, notFound, failed string) {
	ev, err := s.engine.EvaluateLatest(r.Context(), UserFrom(r.Context()), topicParam(r))
	switch {
	case err == nil:
	case statusFor(err) == http.StatusNotFound:
		writeMessage(w, http.StatusNotFound, notFound)
		return
	default:
		s.fail(w, r, err, failed)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.engine.History(r.Context(), UserFrom(r.Context()), topicParam(r), limit)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch assessment history")
		return
	}
	out := make([]recordView, len(recs))
	for i, rec := range recs {
		out[i] = recordView{
			ID:        rec.ID,
			Questions: rec.Questions,
			Answers:   rec.Answers,
			Score:     rec.Score,
			Passed:    rec.Passed,
			CreatedAt: rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (s *Server) handleMastery(w http.ResponseWriter, r *http.Request) {
	topics, err := s.engine.Mastered(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch mastered topics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}
