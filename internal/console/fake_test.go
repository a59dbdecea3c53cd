package console

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
)

// fakeJobs is an in-memory job.Service. When block is set, Upload waits on
// it or on ctx.
type fakeJobs struct {
	mu        sync.Mutex
	jobs      []domain.Job
	listErr   error
	uploadErr error
	block     chan struct{}
	started   chan struct{}

	uploads     atomic.Int32
	invalidated atomic.Int32
	offline     atomic.Bool
}

func (f *fakeJobs) List(ctx context.Context) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		f.offline.Store(true)
		return nil, f.listErr
	}
	f.offline.Store(false)
	return append([]domain.Job{}, f.jobs...), nil
}

func (f *fakeJobs) Prefetch(ctx context.Context) []domain.Job {
	jobs, err := f.List(ctx)
	if err != nil {
		return []domain.Job{}
	}
	return jobs
}

func (f *fakeJobs) Upload(ctx context.Context, file graphql.File) (domain.Job, error) {
	f.uploads.Add(1)
	if _, err := io.ReadAll(file.Content); err != nil {
		return domain.Job{}, err
	}

	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.Job{}, &graphql.CancellationError{Err: ctx.Err()}
		}
	}

	if f.uploadErr != nil {
		return domain.Job{}, f.uploadErr
	}

	created := domain.Job{ID: "0123456789abcdef", Filename: file.Name, Status: "pending"}
	f.mu.Lock()
	f.jobs = append([]domain.Job{created}, f.jobs...)
	f.mu.Unlock()
	return created, nil
}

func (f *fakeJobs) Invalidate() {
	f.invalidated.Add(1)
}

func (f *fakeJobs) Offline() bool {
	return f.offline.Load()
}

var errBackend = errors.New("Upload failed with status 500")
