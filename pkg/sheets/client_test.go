package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context) (string, error) { return s.token, nil }

func TestReadAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sheet-1/values/leads", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"range": "leads!A1:F3",
			"values": [][]string{
				{"Organization", "Email"},
				{"Acme", "sales@acme.io"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	rows, err := c.ReadAll(context.Background(), "leads")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sales@acme.io", rows[1][1])
}

func TestReadAll_EmptyTable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"range": "leads!A1"})
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	rows, err := c.ReadAll(context.Background(), "leads")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadAll_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"values": [][]string{{"a"}}})
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	rows, err := c.ReadAll(context.Background(), "leads")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestReadAll_ClientErrorDoesNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	_, err := c.ReadAll(context.Background(), "leads")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "403")
}

func TestWriteAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))

		var payload struct {
			Values [][]string `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, [][]string{{"Email", "Contacted"}, {"a@a.com", "TRUE"}}, payload.Values)

		json.NewEncoder(w).Encode(map[string]any{"updatedCells": 4})
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	err := c.WriteAll(context.Background(), "leads", [][]string{
		{"Email", "Contacted"},
		{"a@a.com", "TRUE"},
	})
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet-1", r.URL.Path)
		assert.Equal(t, "spreadsheetId", r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(map[string]string{"spreadsheetId": "sheet-1"})
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	require.NoError(t, c.Ping(context.Background()))
}

func TestTableNameIsEscaped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lead list!A1:F100", r.URL.Path[len("/sheet-1/values/"):])
		json.NewEncoder(w).Encode(map[string]any{"values": [][]string{}})
	}))
	defer srv.Close()

	c := NewClient("sheet-1", staticTokens{"tok"}, WithBaseURL(srv.URL))
	_, err := c.ReadAll(context.Background(), "lead list!A1:F100")
	require.NoError(t, err)
}
