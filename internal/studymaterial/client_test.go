package studymaterial

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygeni/study-gateway/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: slog.LevelError})
}

func testResult() Result {
	return Result{
		Summary: "A summary of photosynthesis.",
		Flashcards: []Flashcard{
			{Question: "What is photosynthesis?", Answer: "Conversion of light into chemical energy."},
		},
		Quiz: []QuizQuestion{
			{
				Question: "Where does photosynthesis occur?",
				Options: []QuizOption{
					{Option: "Chloroplast", IsCorrect: true},
					{Option: "Mitochondria", IsCorrect: false},
				},
				Explanation: "Chloroplasts hold the chlorophyll.",
			},
		},
	}
}

func TestGeneratePostsTopicRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/routes/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "topic", got["input_method"])
		assert.Equal(t, "Photosynthesis", got["topic"])
		assert.Equal(t, "revision", got["purpose"])
		assert.Equal(t, "beginner", got["difficulty_level"])
		// Blank credential is omitted entirely, never sent as empty string.
		_, present := got["gemini_api_key"]
		assert.False(t, present)

		json.NewEncoder(w).Encode(testResult()) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	result, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "A summary of photosynthesis.", result.Summary)
	require.Len(t, result.Quiz, 1)
	assert.True(t, result.Quiz[0].Options[0].IsCorrect)
}

func TestGenerateUsesDefaultCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gateway-key", got["gemini_api_key"])
		json.NewEncoder(w).Encode(testResult()) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "gateway-key", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodText,
		Content:         "cells",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})
	require.NoError(t, err)
}

func TestGenerateUserCredentialWinsOverDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "user-key", got["gemini_api_key"])
		json.NewEncoder(w).Encode(testResult()) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "gateway-key", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodText,
		Content:         "cells",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
		GeminiAPIKey:    "user-key",
	})
	require.NoError(t, err)
}

func TestGenerateRemoteErrorStringDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Invalid API key or authentication error."}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.Status)
	assert.Equal(t, "Invalid API key or authentication error.", remoteErr.Detail)
}

func TestGenerateRemoteErrorValidationDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"loc": ["body", "topic"], "msg": "field required", "type": "value_error.missing"}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "field required", remoteErr.Detail)
}

func TestGenerateRemoteErrorUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>")) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.Status)
	assert.Contains(t, remoteErr.Detail, "500")
}

func TestGenerateParseErrorOnMalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all")) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestGenerateNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // transport failure

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	_, err := client.Generate(context.Background(), &GenerateRequest{
		InputMethod:     InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyBeginner,
	})

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestGenerateFromFileMultipartBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/routes/process-file-upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))

		assert.Equal(t, "revision", r.FormValue("purpose"))
		assert.Equal(t, "intermediate", r.FormValue("difficulty_level"))
		assert.Equal(t, "", r.FormValue("gemini_api_key"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck

		assert.Equal(t, "notes.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), data)

		json.NewEncoder(w).Encode(testResult()) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	result, err := client.GenerateFromFile(context.Background(), &FileRequest{
		Filename:        "notes.pdf",
		ContentType:     "application/pdf",
		Size:            13,
		Data:            []byte("%PDF-1.4 fake"),
		Purpose:         PurposeRevision,
		DifficultyLevel: DifficultyIntermediate,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Summary)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_healthz", r.URL.Path)
		w.Write([]byte(`{"status": "ok"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "", testLogger())

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}
