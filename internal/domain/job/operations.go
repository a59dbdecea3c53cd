package job

import (
	"context"

	"github.com/honeycarbs/mixer-client/internal/cache"
	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
)

// CacheKey identifies the job list in the query cache
const CacheKey = "jobs"

const (
	JobsQuery = `
  query Jobs {
    jobs {
      id
      filename
      status
    }
  }
`

	UploadAudioMutation = `
  mutation UploadAudio($file: Upload!) {
    uploadAudio(file: $file) {
      id
      filename
      status
    }
  }
`

	uploadFileField = "file"
	uploadResultKey = "uploadAudio"
)

type jobsData struct {
	Jobs []domain.Job `json:"jobs"`
}

// ListQuery declares the cached job list read. Failures are not retried so
// callers can tell an unreachable backend from a slow one.
func ListQuery(gql *graphql.Client) cache.Query[[]domain.Job] {
	return cache.Query[[]domain.Job]{
		Key:   CacheKey,
		Fetch: func(ctx context.Context) ([]domain.Job, error) {
			return FetchJobs(ctx, gql)
		},
		Retry: 0,
	}
}

// FetchJobs runs the jobs query and returns the list in server order
func FetchJobs(ctx context.Context, gql *graphql.Client) ([]domain.Job, error) {
	data, err := graphql.Query[jobsData](ctx, gql, JobsQuery, nil)
	if err != nil {
		return nil, err
	}
	return data.Jobs, nil
}

// UploadAudio sends file through the uploadAudio mutation and returns the created job
func UploadAudio(ctx context.Context, gql *graphql.Client, file graphql.File) (domain.Job, error) {
	return graphql.UploadFile[domain.Job](ctx, gql, graphql.Upload{
		Query:         UploadAudioMutation,
		FileFieldPath: uploadFileField,
		File:          file,
		ResultKey:     uploadResultKey,
	})
}
