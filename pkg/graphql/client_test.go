package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/mixer-client/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Endpoint: srv.URL + "/query"})
	require.NoError(t, err)
	return c
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	_, err = NewClient(Config{Endpoint: "/query"})
	require.Error(t, err)

	c, err := NewClient(Config{Endpoint: "http://localhost:8080/query"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/query", c.Endpoint())
}

func TestQuerySendsJSONBody(t *testing.T) {
	var (
		got         Request
		contentType string
		requestID   string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(http.StatusOK, `{"data":{"ok":true}}`)(w, r)
	})

	_, err := c.Do(context.Background(), Request{
		Query:     "query Q($id: ID!) { job(id: $id) { id } }",
		Variables: map[string]any{"id": "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "query Q($id: ID!) { job(id: $id) { id } }", got.Query)
	assert.Equal(t, map[string]any{"id": "abc"}, got.Variables)
}

func TestQueryOmitsNilVariables(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		respond(http.StatusOK, `{"data":{}}`)(w, r)
	})

	_, err := c.Do(context.Background(), Request{Query: "{ jobs { id } }"})
	require.NoError(t, err)

	_, hasVars := raw["variables"]
	assert.False(t, hasVars)
}

func TestQueryReturnsDataUnmodified(t *testing.T) {
	type job struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		Status   string `json:"status"`
	}
	type payload struct {
		Jobs []job `json:"jobs"`
	}

	c := newTestClient(t, respond(http.StatusOK,
		`{"data":{"jobs":[{"id":"2","filename":"b.wav","status":"done"},{"id":"1","filename":"a.wav","status":"pending"}]}}`))

	got, err := Query[payload](context.Background(), c, "query Jobs { jobs { id filename status } }", nil)
	require.NoError(t, err)

	assert.Equal(t, payload{Jobs: []job{
		{ID: "2", Filename: "b.wav", Status: "done"},
		{ID: "1", Filename: "a.wav", Status: "pending"},
	}}, got)
}

func TestQueryJoinsServerErrors(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK,
		`{"errors":[{"message":"first"},{"message":"second"},{"message":"third"}],"data":null}`))

	_, err := Query[map[string]any](context.Background(), c, "{ jobs { id } }", nil)
	require.Error(t, err)

	var gqlErr *GraphQLError
	require.True(t, errors.As(err, &gqlErr))
	assert.Equal(t, "first\nsecond\nthird", err.Error())
	assert.Equal(t, []string{"first", "second", "third"}, gqlErr.Messages)
}

func TestQueryErrorsWinOverData(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, `{"errors":[{"message":"partial"}],"data":{"jobs":[]}}`))

	got, err := Query[map[string]any](context.Background(), c, "{ jobs { id } }", nil)
	require.EqualError(t, err, "partial")
	assert.Nil(t, got)
}

func TestQueryStatusError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError, http.StatusBadGateway} {
		c := newTestClient(t, respond(status, `{"data":{"jobs":[]}}`))

		_, err := c.Do(context.Background(), Request{Query: "{ jobs { id } }"})
		require.Error(t, err)

		var te *TransportError
		require.True(t, errors.As(err, &te), "status %d", status)
		assert.Equal(t, status, te.StatusCode)
		assert.Contains(t, err.Error(), strconv.Itoa(status))
	}
}

func TestQueryMissingData(t *testing.T) {
	for name, body := range map[string]string{
		"absent": `{}`,
		"null":   `{"data":null}`,
		"empty":  `{"errors":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, respond(http.StatusOK, body))

			_, err := c.Do(context.Background(), Request{Query: "{ jobs { id } }"})

			var pe *ProtocolError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "GraphQL response missing data", err.Error())
		})
	}
}

func TestQueryUndecodableBody(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, `<html>gateway</html>`))

	_, err := c.Do(context.Background(), Request{Query: "{ jobs { id } }"})

	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
}

func TestQueryCancellation(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		respond(http.StatusOK, `{"data":{"jobs":[]}}`)(w, r)
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got, err := Query[map[string]any](ctx, c, "{ jobs { id } }", nil)
	require.Error(t, err)
	assert.Nil(t, got)

	var ce *CancellationError
	require.True(t, errors.As(err, &ce))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, IsCanceled(err))
}

func TestQueryAlreadyCancelled(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		respond(http.StatusOK, `{"data":{}}`)(w, r)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, Request{Query: "{ jobs { id } }"})
	assert.True(t, IsCanceled(err))
	assert.False(t, called)
}

func TestCustomHeaders(t *testing.T) {
	srv := httptest.NewServer(func() http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer t0k", r.Header.Get("Authorization"))
			respond(http.StatusOK, `{"data":{}}`)(w, r)
		}
	}())
	defer srv.Close()

	c, err := NewClient(Config{
		Endpoint: srv.URL,
		Headers:  http.Header{"Authorization": []string{"Bearer t0k"}},
	})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Query: "{ jobs { id } }"})
	require.NoError(t, err)
}

func TestStatusErrorBodyIsLogged(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusBadGateway, "upstream mixer unavailable\n"))
	defer srv.Close()

	var logs bytes.Buffer
	c, err := NewClient(Config{
		Endpoint: srv.URL,
		Logger:   logging.New(logging.Options{Level: "debug", Output: &logs}),
	})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Query: "{ jobs { id } }"})

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "upstream mixer unavailable", te.Body)
	assert.Contains(t, logs.String(), "graphql non-2xx response")
	assert.Contains(t, logs.String(), "upstream mixer unavailable")
	assert.Contains(t, logs.String(), `"status":502`)
}
