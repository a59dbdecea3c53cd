package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/internal/domain/job"
	"github.com/honeycarbs/mixer-client/internal/export"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
	"github.com/honeycarbs/mixer-client/pkg/logging"
)

// ListJobsParams defines the arguments for the list_jobs tool
type ListJobsParams struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"Bypass the cached list and re-fetch from the backend"`
}

// ListJobsResult is the list_jobs output
type ListJobsResult struct {
	Jobs    []domain.Job `json:"jobs" jsonschema:"Jobs in server order"`
	Offline bool         `json:"offline" jsonschema:"True when the backend could not be reached"`
}

// UploadAudioParams defines the arguments for the upload_audio tool
type UploadAudioParams struct {
	Path string `json:"path" jsonschema:"Local path of the audio file to upload"`
}

// UploadAudioResult is the upload_audio output
type UploadAudioResult struct {
	Job domain.Job `json:"job" jsonschema:"The job created for the upload"`
}

type toolDeps struct {
	jobs     job.Service
	exporter *export.SheetsExporter
	logger   *logging.Logger
}

// registerTools wires the job tools into the MCP server
func registerTools(s *sdkmcp.Server, deps toolDeps) {
	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "list_jobs",
		Description: "List audio processing jobs submitted to the mixer backend with their status",
	}, deps.listJobs)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "upload_audio",
		Description: "Upload a local audio file to the mixer backend, creating a processing job",
	}, deps.uploadAudio)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "export_jobs",
		Description: "Overwrite a Google Sheets tab with the current job list",
	}, deps.exportJobs)
}

func (d toolDeps) listJobs(ctx context.Context, _ *sdkmcp.CallToolRequest, params ListJobsParams) (*sdkmcp.CallToolResult, ListJobsResult, error) {
	if params.Refresh {
		d.jobs.Invalidate()
	}

	jobs, err := d.jobs.List(ctx)
	if err != nil {
		if graphql.IsCanceled(err) {
			return nil, ListJobsResult{}, err
		}
		d.logger.Warn("list_jobs: backend unreachable", "err", err)
		return textResult("The mixer backend is offline: " + err.Error()), ListJobsResult{Jobs: []domain.Job{}, Offline: true}, nil
	}

	if jobs == nil {
		jobs = []domain.Job{}
	}

	return textResult(summarize(jobs)), ListJobsResult{Jobs: jobs}, nil
}

func (d toolDeps) uploadAudio(ctx context.Context, _ *sdkmcp.CallToolRequest, params UploadAudioParams) (*sdkmcp.CallToolResult, UploadAudioResult, error) {
	if params.Path == "" {
		return nil, UploadAudioResult{}, fmt.Errorf("path is required")
	}

	file, closer, err := graphql.OpenFile(params.Path)
	if err != nil {
		return nil, UploadAudioResult{}, fmt.Errorf("open %s: %w", params.Path, err)
	}
	defer func() {
		_ = closer.Close()
	}()

	created, err := d.jobs.Upload(ctx, file)
	if err != nil {
		return nil, UploadAudioResult{}, err
	}
	d.jobs.Invalidate()

	msg := fmt.Sprintf("Upload complete. Job %s saved as %s.", created.ShortID(), created.DisplayName())
	return textResult(msg), UploadAudioResult{Job: created}, nil
}

func (d toolDeps) exportJobs(ctx context.Context, _ *sdkmcp.CallToolRequest, params export.Params) (*sdkmcp.CallToolResult, export.Result, error) {
	if d.exporter == nil {
		return nil, export.Result{}, fmt.Errorf("sheets export is not available")
	}

	jobs, err := d.jobs.List(ctx)
	if err != nil {
		return nil, export.Result{}, err
	}

	res, err := d.exporter.Export(ctx, params, jobs)
	if err != nil {
		return nil, res, err
	}

	msg := fmt.Sprintf("Exported %d job(s) to %s/%s", len(jobs), res.SpreadsheetID, res.Tab)
	return textResult(msg), res, nil
}

func summarize(jobs []domain.Job) string {
	if len(jobs) == 0 {
		return "No uploads yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d job(s):", len(jobs))
	for _, j := range jobs {
		fmt.Fprintf(&b, "\n- %s #%s %s", j.DisplayName(), j.ID, j.DisplayStatus())
	}
	return b.String()
}

// Produce a text-only ToolResult
func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}
