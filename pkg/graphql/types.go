package graphql

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/honeycarbs/mixer-client/pkg/logging"
)

// DefaultUploadResultKey is the mutation field unwrapped from upload responses
// when Upload.ResultKey is empty
const DefaultUploadResultKey = "uploadAudio"

// Config defines GraphQL client settings
type Config struct {
	Endpoint   string // absolute URL, e.g. http://localhost:8080/query
	HTTPClient *http.Client
	Logger     *logging.Logger
	Headers    http.Header // sent with every request
}

// Client issues GraphQL operations against a single endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
	headers    http.Header
}

// Request is a plain query or mutation
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Upload describes a mutation that carries one file using the GraphQL
// multipart request convention
type Upload struct {
	Query string
	// FileFieldPath is the dotted path of the file inside variables, e.g. "file"
	// or "input.file"
	FileFieldPath string
	File          File
	Variables     map[string]any
	// ResultKey names the field of data returned to the caller
	ResultKey string
}

// File is the content sent as multipart part "0"
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []serverError   `json:"errors"`
}

type serverError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}
