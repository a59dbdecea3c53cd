package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/internal/domain/job"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
)

// UploadState is the upload flow's position
type UploadState int

const (
	StateIdle UploadState = iota
	StateReady
	StateUploading
)

func (s UploadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateUploading:
		return "uploading"
	default:
		return fmt.Sprintf("UploadState(%d)", int(s))
	}
}

const (
	msgPickFile      = "Pick a file before uploading."
	msgUploading     = "Uploading file..."
	msgCanceled      = "Upload canceled."
	msgUploadFailed  = "Failed to upload file."
	msgUploadSuccess = "Upload complete. Job %s saved as %s."
)

var (
	ErrUploadInFlight = errors.New("an upload is already in progress")
	ErrNoFileSelected = errors.New("no file selected")
)

// Selection is the file picked for the next upload
type Selection struct {
	Path string
	Name string
	Size int64
}

// View is a consistent snapshot of the uploader
type View struct {
	State    UploadState
	Selected *Selection
	Status   string
}

// Uploader drives one file at a time through select, submit and result.
// At most one upload is in flight.
type Uploader struct {
	jobs job.Service
	open func(path string) (graphql.File, io.Closer, error)

	mu       sync.Mutex
	state    UploadState
	selected *Selection
	status   string
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewUploader creates an idle uploader
func NewUploader(jobs job.Service) *Uploader {
	return &Uploader{
		jobs: jobs,
		open: graphql.OpenFile,
	}
}

// Select picks path for the next upload and clears the status message
func (u *Uploader) Select(path string) (Selection, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateUploading {
		return Selection{}, ErrUploadInFlight
	}

	info, err := os.Stat(path)
	if err != nil {
		return Selection{}, err
	}
	if info.IsDir() {
		return Selection{}, fmt.Errorf("%s is a directory", path)
	}

	sel := Selection{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
	}
	u.selected = &sel
	u.state = StateReady
	u.status = ""

	return sel, nil
}

// Submit uploads the selected file and blocks until the upload ends. On
// success the selection is cleared and the job list is invalidated; on
// failure the selection is kept for a retry.
func (u *Uploader) Submit(ctx context.Context) (domain.Job, error) {
	u.mu.Lock()
	if u.state == StateUploading {
		u.mu.Unlock()
		return domain.Job{}, ErrUploadInFlight
	}
	if u.selected == nil {
		u.status = msgPickFile
		u.mu.Unlock()
		return domain.Job{}, ErrNoFileSelected
	}

	sel := *u.selected
	upCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.state = StateUploading
	u.status = msgUploading
	u.cancel = cancel
	u.done = done
	u.mu.Unlock()

	created, err := u.upload(upCtx, sel)

	u.mu.Lock()
	defer u.mu.Unlock()
	cancel()
	close(done)
	u.cancel = nil
	u.done = nil

	switch {
	case err == nil:
		u.selected = nil
		u.state = StateIdle
		u.status = fmt.Sprintf(msgUploadSuccess, created.ShortID(), created.DisplayName())
		u.jobs.Invalidate()
	case graphql.IsCanceled(err):
		u.state = StateReady
		u.status = msgCanceled
	default:
		u.state = StateReady
		u.status = statusFromError(err)
	}

	return created, err
}

// Abort cancels the in-flight upload, if any
func (u *Uploader) Abort() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		u.cancel()
	}
}

// Shutdown aborts the in-flight upload and waits for it to unwind
func (u *Uploader) Shutdown(ctx context.Context) error {
	u.mu.Lock()
	done := u.done
	if u.cancel != nil {
		u.cancel()
	}
	u.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View returns the current state, selection and status message
func (u *Uploader) View() View {
	u.mu.Lock()
	defer u.mu.Unlock()

	v := View{State: u.state, Status: u.status}
	if u.selected != nil {
		sel := *u.selected
		v.Selected = &sel
	}
	return v
}

func (u *Uploader) upload(ctx context.Context, sel Selection) (domain.Job, error) {
	file, closer, err := u.open(sel.Path)
	if err != nil {
		return domain.Job{}, err
	}
	defer func() {
		_ = closer.Close()
	}()

	return u.jobs.Upload(ctx, file)
}

func statusFromError(err error) string {
	if err == nil || err.Error() == "" {
		return msgUploadFailed
	}
	return err.Error()
}
