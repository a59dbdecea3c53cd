package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/honeycarbs/mixer-client/internal/domain"
)

const (
	msgOffline = "Can't reach the backend right now. We'll load your jobs once it comes back online."
	msgNoJobs  = "No uploads yet. Start by sending your first file."
)

// RenderJobs writes the job list in server order. A non-nil err means the
// last list fetch failed and the backend is shown as offline.
func RenderJobs(w io.Writer, jobs []domain.Job, err error) error {
	if err != nil {
		_, werr := fmt.Fprintln(w, msgOffline)
		return werr
	}

	if len(jobs) == 0 {
		_, werr := fmt.Fprintln(w, msgNoJobs)
		return werr
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Job", "Status"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, j := range jobs {
		table.Append([]string{j.DisplayName(), "#" + j.ID, j.DisplayStatus()})
	}
	table.Render()

	return nil
}

// RenderJobsJSON writes jobs exactly as the server returned them
func RenderJobsJSON(w io.Writer, jobs []domain.Job) error {
	if jobs == nil {
		jobs = []domain.Job{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}

// FormatFileSize renders a byte count for the selected-file line using
// 1024-based B/KB/MB/GB units, one decimal below 10 and whole numbers above
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	if size >= 1<<40 {
		return fmt.Sprintf("%.0f GB", float64(size)/(1<<30))
	}
	return strings.Replace(humanize.IBytes(uint64(size)), "iB", "B", 1)
}
