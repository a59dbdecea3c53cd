package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestReplaceTab(t *testing.T) {
	var calls []string
	var written struct {
		Values [][]interface{} `json:"values"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, ":clear"):
			_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","clearedRange":"Jobs!A1:Z100"}`)
		case r.Method == http.MethodPut:
			assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&written))
			_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updatedRows":2}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{Options: []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithoutAuthentication(),
	}})
	require.NoError(t, err)

	n, err := c.ReplaceTab(context.Background(), "sheet-1", "Jobs", [][]interface{}{
		{"Job ID", "File"},
		{"1", "a.wav"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[0], http.MethodPost+" /v4/spreadsheets/sheet-1/values/"))
	assert.True(t, strings.HasPrefix(calls[1], http.MethodPut+" /v4/spreadsheets/sheet-1/values/"))
	assert.Equal(t, [][]interface{}{{"Job ID", "File"}, {"1", "a.wav"}}, written.Values)
}

func TestReplaceTabEmptyRowsOnlyClears(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{Options: []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithoutAuthentication(),
	}})
	require.NoError(t, err)

	n, err := c.ReplaceTab(context.Background(), "sheet-1", "Jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, calls)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	require.Error(t, err)
}

func TestNewClientRejectsMalformedInlineCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{CredentialsJSON: []byte("not a key")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets: failed to create service")
}
