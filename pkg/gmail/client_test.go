package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDraft_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/me/drafts", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var payload struct {
			Message struct {
				Raw string `json:"raw"`
			} `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "cmF3LWJ5dGVz", payload.Message.Raw)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"draft-1"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	err := c.CreateDraft(context.Background(), "tok-123", "cmF3LWJ5dGVz")
	require.NoError(t, err)
}

func TestCreateDraft_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	err := c.CreateDraft(context.Background(), "stale", "raw")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid Credentials")
}

func TestCreateDraft_CreatedIsSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, c.CreateDraft(context.Background(), "tok", "raw"))
}

func TestBuildRawMessage(t *testing.T) {
	t.Parallel()

	raw, err := BuildRawMessage(
		"sender@example.com", "lead@example.com",
		"Hello there", "<p>Hi <b>friend</b></p>", "Hi friend",
	)
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	msg := string(decoded)

	assert.Contains(t, msg, "From: sender@example.com")
	assert.Contains(t, msg, "To: lead@example.com")
	assert.Contains(t, msg, "Subject: Hello there")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "text/plain")
	assert.Contains(t, msg, "text/html")
}

func TestBuildRawMessage_HTMLOnly(t *testing.T) {
	t.Parallel()

	raw, err := BuildRawMessage("a@a.com", "b@b.com", "S", "<p>hi</p>", "")
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "text/html")
	assert.False(t, strings.Contains(string(decoded), "multipart/alternative"))
}
