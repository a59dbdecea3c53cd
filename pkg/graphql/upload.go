package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const filePart = "0"

// Upload posts a multipart GraphQL request and returns data.<ResultKey>
func (c *Client) Upload(ctx context.Context, up Upload) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("graphql: client is nil")
	}
	if up.FileFieldPath == "" {
		return nil, fmt.Errorf("graphql: file field path is required")
	}
	if up.File.Content == nil {
		return nil, fmt.Errorf("graphql: file content is required")
	}

	resultKey := up.ResultKey
	if resultKey == "" {
		resultKey = DefaultUploadResultKey
	}

	operations, err := encodeOperations(up)
	if err != nil {
		return nil, err
	}

	mapping, err := json.Marshal(map[string][]string{
		filePart: {"variables." + up.FileFieldPath},
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: encode map: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, operations, mapping, up.File))
	}()

	env, err := c.post(ctx, OpUpload, pr, mw.FormDataContentType())
	_ = pr.Close()
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return nil, &ProtocolError{Reason: "decode GraphQL data", Err: err}
	}

	result, ok := fields[resultKey]
	if !ok || isNull(result) {
		return nil, &ProtocolError{Reason: fmt.Sprintf("GraphQL response missing %s", resultKey)}
	}

	return result, nil
}

// UploadFile sends up and decodes the unwrapped result into T
func UploadFile[T any](ctx context.Context, c *Client, up Upload) (T, error) {
	var out T

	raw, err := c.Upload(ctx, up)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ProtocolError{Reason: "decode upload result", Err: err}
	}

	return out, nil
}

// OpenFile opens a local file for upload. The caller closes the returned Closer.
func OpenFile(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return File{}, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return File{}, nil, fmt.Errorf("%s is a directory", path)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Content:     f,
	}, f, nil
}

func encodeOperations(up Upload) ([]byte, error) {
	path := strings.Split(up.FileFieldPath, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, fmt.Errorf("graphql: invalid file field path %q", up.FileFieldPath)
		}
	}

	ops, err := json.Marshal(Request{
		Query:     up.Query,
		Variables: withNullAt(up.Variables, path),
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: encode operations: %w", err)
	}

	return ops, nil
}

// withNullAt returns a copy of vars with the value at path set to null.
// Maps along the path are copied, vars itself is left untouched.
func withNullAt(vars map[string]any, path []string) map[string]any {
	out := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}

	if len(path) == 1 {
		out[path[0]] = nil
		return out
	}

	child, _ := vars[path[0]].(map[string]any)
	out[path[0]] = withNullAt(child, path[1:])
	return out
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeParts emits operations, map and the file in that order; servers may
// stream the body and need operations before the file
func writeParts(mw *multipart.Writer, operations, mapping []byte, file File) error {
	if err := mw.WriteField("operations", string(operations)); err != nil {
		return err
	}
	if err := mw.WriteField("map", string(mapping)); err != nil {
		return err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := file.Name
	if name == "" {
		name = "upload"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, filePart, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("graphql: read file: %w", err)
	}

	return mw.Close()
}
