package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmastery/internal/questions"
	"github.com/abhisek/quizmastery/internal/quiz"
	"github.com/abhisek/quizmastery/internal/session"
	"github.com/abhisek/quizmastery/internal/store"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func tokenFor(t *testing.T, email string) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

type testServer struct {
	*httptest.Server
	mem *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	ctrl := session.New(session.Config{
		Source:   questions.NewService(nil, 0, nil),
		Sessions: mem,
		Mastery:  mem,
		History:  mem,
	})
	return newTestServerWith(t, ctrl, mem)
}

func newTestServerWith(t *testing.T, engine Engine, mem *store.Memory) *testServer {
	t.Helper()
	srv := NewServer(Options{Engine: engine, Auth: NewAuthenticator(testSecret)})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, mem: mem}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthz_NoAuth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic Zm9vOmJhcg==", http.StatusForbidden},
		{"garbage token", "Bearer not-a-jwt", http.StatusForbidden},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"email": "a@b.c"}), http.StatusForbidden},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"email": "a@b.c",
			"exp":   time.Now().Add(-time.Hour).Unix(),
		}), http.StatusForbidden},
		{"no identity", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "student"}), http.StatusForbidden},
		{"valid", "Bearer " + tokenFor(t, "a@b.c"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/mastery", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthenticator_SubFallback(t *testing.T) {
	a := NewAuthenticator(testSecret)
	user, err := a.Identity(signToken(t, testSecret, jwt.MapClaims{"sub": "user-42"}))
	require.NoError(t, err)
	assert.Equal(t, "user-42", user)

	user, err = a.Identity(signToken(t, testSecret, jwt.MapClaims{"sub": "user-42", "email": "x@y.z"}))
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", user, "email wins over sub")
}

func TestAuthenticator_RejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"email": "a@b.c"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = NewAuthenticator(testSecret).Identity(tok)
	assert.Error(t, err)
}

func TestGenerate_HidesAnswerKey(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/api/question/generate/Arrays", tokenFor(t, "ana@example.com"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	qs, ok := body["questions"].([]any)
	require.True(t, ok)
	require.Len(t, qs, 10)
	for _, q := range qs {
		m := q.(map[string]any)
		assert.NotEmpty(t, m["question"])
		assert.Len(t, m["options"], 4)
		assert.NotContains(t, m, "correct")
	}
}

func TestQuizFlow(t *testing.T) {
	ts := newTestServer(t)
	tok := tokenFor(t, "ana@example.com")

	resp, _ := ts.do(t, http.MethodGet, "/api/question/generate/Binary%20Search", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The fallback bank's answer key is 0,1,2,3 repeating.
	answers := []any{0, 1, 2, 3, 0, 1, 2, nil, nil, nil}
	resp, body := ts.do(t, http.MethodPost, "/api/question/submit/Binary%20Search", tok, map[string]any{
		"answers":          answers,
		"cheatingDetected": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 7, body["score"])
	assert.Equal(t, true, body["passed"])
	assert.Equal(t, quiz.MessagePassed, body["message"])

	resp, body = ts.do(t, http.MethodGet, "/api/question/generate/Binary%20Search", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You have already mastered this topic.", body["message"])

	resp, body = ts.do(t, http.MethodGet, "/api/assessment/evaluate/Binary%20Search", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 7, body["score"])
	assert.Len(t, body["userAnswers"], 10)
	qs := body["questions"].([]any)
	assert.Contains(t, qs[0].(map[string]any), "correct", "review includes the answer key")

	resp, body = ts.do(t, http.MethodGet, "/api/mastery", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	topics := body["topics"].([]any)
	require.Len(t, topics, 1)
	assert.Equal(t, "Binary Search", topics[0].(map[string]any)["topic"])

	resp, body = ts.do(t, http.MethodGet, "/api/assessment/history/Binary%20Search?limit=5", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["records"], 1)
}

func TestSubmit_NoSession(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodPost, "/api/question/submit/Graphs", tokenFor(t, "ana@example.com"), map[string]any{
		"answers": []int{0, 1, 2},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No active quiz session found", body["message"])
}

func TestSubmit_Cheating(t *testing.T) {
	ts := newTestServer(t)
	tok := tokenFor(t, "ana@example.com")

	resp, body := ts.do(t, http.MethodPost, "/api/question/submit/Graphs", tok, map[string]any{
		"answers":          []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1},
		"cheatingDetected": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["score"])
	assert.Equal(t, false, body["passed"])
	assert.Equal(t, quiz.MessageCheating, body["message"])
}

func TestSubmit_BadBody(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/question/submit/Graphs", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "ana@example.com"))
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t)
	body := `{"answers":[` + strings.Repeat("0,", maxSubmitBytes) + `0]}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/question/submit/Graphs", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "ana@example.com"))
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestTopicPathDecoding(t *testing.T) {
	tests := []struct {
		segment string
		topic   string
	}{
		{"Binary%20Search", "Binary Search"},
		{"50%2541", "50%41"},
		{"CI%2FCD", "CI/CD"},
	}
	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			ts := newTestServer(t)
			resp, _ := ts.do(t, http.MethodGet, "/api/question/generate/"+tt.segment, tokenFor(t, "ana@example.com"), nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			got, err := ts.mem.Active(context.Background(), quiz.Key{User: "ana@example.com", Topic: tt.topic})
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.topic, got.Key.Topic)
		})
	}

	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodGet, "/api/question/generate/50%2541", tokenFor(t, "ana@example.com"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got, err := ts.mem.Active(context.Background(), quiz.Key{User: "ana@example.com", Topic: "50A"})
	require.NoError(t, err)
	assert.Nil(t, got, "a literal percent in the topic is decoded once")
}

func TestCleanupAndEvaluate(t *testing.T) {
	ts := newTestServer(t)
	tok := tokenFor(t, "ana@example.com")

	resp, body := ts.do(t, http.MethodDelete, "/api/question/cleanup/Heaps", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Quiz session cleaned up", body["message"])

	resp, body = ts.do(t, http.MethodGet, "/api/assessment/evaluate/Heaps", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No assessment found for this topic", body["message"])

	resp, body = ts.do(t, http.MethodGet, "/api/question/session/Heaps", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No completed quiz session found", body["message"])
}

func TestHistory_BadLimit(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodGet, "/api/assessment/history/Heaps?limit=-1", tokenFor(t, "ana@example.com"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsersAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	ana, bob := tokenFor(t, "ana@example.com"), tokenFor(t, "bob@example.com")

	resp, _ := ts.do(t, http.MethodGet, "/api/question/generate/Tries", ana, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/question/submit/Tries", bob, map[string]any{"answers": []int{}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "bob cannot submit ana's session")
}

// brokenEngine fails every call with a storage error.
type brokenEngine struct{}

var errBroken = quiz.Persistence("load active session", errors.New("connection refused"))

func (brokenEngine) GenerateOrResume(context.Context, string, string) ([]quiz.Question, error) {
	return nil, errBroken
}

func (brokenEngine) Submit(context.Context, string, string, []quiz.Answer, bool) (quiz.Result, error) {
	return quiz.Result{}, errBroken
}

func (brokenEngine) Cleanup(context.Context, string, string) error { return errBroken }

func (brokenEngine) EvaluateLatest(context.Context, string, string) (quiz.Evaluation, error) {
	return quiz.Evaluation{}, errBroken
}

func (brokenEngine) Mastered(context.Context, string) ([]quiz.MasteryEntry, error) {
	return nil, errBroken
}

func (brokenEngine) History(context.Context, string, string, int) ([]*quiz.Record, error) {
	return nil, errBroken
}

func TestPersistenceErrorsAreGeneric(t *testing.T) {
	ts := newTestServerWith(t, brokenEngine{}, nil)
	tok := tokenFor(t, "ana@example.com")

	tests := []struct {
		method, path, msg string
	}{
		{http.MethodGet, "/api/question/generate/Arrays", "Failed to generate quiz questions"},
		{http.MethodPost, "/api/question/submit/Arrays", "Failed to submit quiz"},
		{http.MethodDelete, "/api/question/cleanup/Arrays", "Failed to clean up quiz session"},
		{http.MethodGet, "/api/assessment/evaluate/Arrays", "Failed to fetch assessment evaluation"},
		{http.MethodGet, "/api/mastery", "Failed to fetch mastered topics"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body any
			if tt.method == http.MethodPost {
				body = map[string]any{"answers": []int{}}
			}
			resp, out := ts.do(t, tt.method, tt.path, tok, body)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, tt.msg, out["message"])
			assert.NotContains(t, out["message"], "connection refused")
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusFor(quiz.ErrAlreadyMastered))
	assert.Equal(t, http.StatusNotFound, statusFor(quiz.ErrNoActiveSession))
	assert.Equal(t, http.StatusNotFound, statusFor(quiz.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(quiz.ErrInvalidKey))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errBroken))
}
