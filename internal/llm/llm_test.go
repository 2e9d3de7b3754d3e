package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	_, err := New(Config{Provider: "gemini"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(Config{Provider: "openai"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(Config{Provider: "claude", GeminiAPIKey: "k"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")

	m, err := New(Config{Provider: "OpenAI", OpenAIAPIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "openai/"+DefaultOpenAIModel, m.Name())

	m, err = New(Config{GeminiAPIKey: "k", GeminiModel: "gemini-test"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gemini/gemini-test", m.Name())
}

type sentChat struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIGenerate(t *testing.T) {
	var got sentChat
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"diagnoses\":[\"Flu\"],\"recommendations\":[\"Rest\"]}"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, zerolog.Nop())
	text, err := o.Generate(context.Background(), "symptoms: fever")
	require.NoError(t, err)
	assert.Contains(t, text, `"diagnoses"`)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "symptoms: fever", got.Messages[0].Content)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
}

func TestOpenAIGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer bad":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
		default:
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[]}`))
		}
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL}, zerolog.Nop()).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"), err.Error())

	_, err = NewOpenAI(OpenAIConfig{APIKey: "ok", BaseURL: srv.URL}, zerolog.Nop()).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")

	_, err = NewOpenAI(OpenAIConfig{BaseURL: srv.URL}, zerolog.Nop()).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenAIGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := o.Generate(ctx, "p")
	require.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Possible diagnoses:\n- Influenza infection"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL + "/"}, zerolog.Nop())
	require.NoError(t, err)
	text, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Contains(t, text, "Influenza infection")
}

func TestGeminiGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "k", BaseURL: srv.URL + "/"}, zerolog.Nop())
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "p")
	require.Error(t, err)
}
