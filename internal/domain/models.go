package domain

import "strings"

// Job is a server-side processing job created by an audio upload. The
// client treats it as immutable and only replaces it by re-fetching.
type Job struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"` // server-defined, never validated client side
}

// ShortID returns the leading eight characters of the job ID
func (j Job) ShortID() string {
	if len(j.ID) <= 8 {
		return j.ID
	}
	return j.ID[:8]
}

// DisplayName strips any directory part from the filename, accepting both
// slash and backslash separators
func (j Job) DisplayName() string {
	return Basename(j.Filename)
}

// DisplayStatus is the status as shown to users
func (j Job) DisplayStatus() string {
	return strings.ToUpper(j.Status)
}

// Basename returns the last path segment of p, or p itself when that
// segment is empty
func Basename(p string) string {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return p
	}
	if last := p[i+1:]; last != "" {
		return last
	}
	return p
}
