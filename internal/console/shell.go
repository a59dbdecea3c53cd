package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/internal/domain/job"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
	"github.com/honeycarbs/mixer-client/pkg/logging"
)

const shellHelp = `Commands:
  select <path>   pick an audio file to upload
  upload          upload the selected file
  cancel          abort the upload in progress
  status          show the selected file and the last status message
  jobs            show recent jobs
  refresh         re-fetch recent jobs from the backend
  help            show this help
  quit            leave the shell`

// Shell is the interactive upload page: a file picker, an upload button
// and the recent jobs list
type Shell struct {
	jobs     job.Service
	uploader *Uploader
	in       io.Reader
	out      io.Writer
	logger   *logging.Logger

	outMu sync.Mutex
	wg    sync.WaitGroup
}

// NewShell wires a shell to the given input and output
func NewShell(jobs job.Service, uploader *Uploader, in io.Reader, out io.Writer, logger *logging.Logger) *Shell {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Shell{
		jobs:     jobs,
		uploader: uploader,
		in:       in,
		out:      out,
		logger:   logger.Named("shell"),
	}
}

// Run prefetches the job list and processes commands until quit, end of
// input or ctx cancellation
func (s *Shell) Run(ctx context.Context) error {
	s.println("Upload Audio: select an audio file to send to the mixer. Type 'help' for commands.")

	jobs := s.jobs.Prefetch(ctx)
	var listErr error
	if s.jobs.Offline() {
		listErr = errors.New("offline")
	}
	s.render(jobs, listErr)

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.uploader.Abort()
			s.wg.Wait()
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// end of input: let a running upload finish
				s.wg.Wait()
				return nil
			}
			if quit := s.handle(ctx, strings.TrimSpace(line)); quit {
				s.uploader.Abort()
				s.wg.Wait()
				return nil
			}
		}
	}
}

func (s *Shell) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		s.println(shellHelp)

	case "select", "s":
		if arg == "" {
			s.println("usage: select <path>")
			return false
		}
		sel, err := s.uploader.Select(arg)
		if err != nil {
			s.println(err.Error())
			return false
		}
		s.printf("%s (%s)\n", sel.Name, FormatFileSize(sel.Size))

	case "upload", "u":
		s.startUpload(ctx)

	case "cancel":
		s.uploader.Abort()

	case "status":
		s.showStatus()

	case "jobs", "j":
		s.showJobs(ctx)

	case "refresh", "r":
		s.jobs.Invalidate()
		s.showJobs(ctx)

	default:
		s.printf("unknown command %q, type 'help'\n", cmd)
	}

	return false
}

func (s *Shell) startUpload(ctx context.Context) {
	if s.uploader.View().State == StateUploading {
		s.println(ErrUploadInFlight.Error())
		return
	}
	if s.uploader.View().Selected == nil {
		_, _ = s.uploader.Submit(ctx)
		s.println(s.uploader.View().Status)
		return
	}

	s.println(msgUploading)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		_, err := s.uploader.Submit(ctx)
		if errors.Is(err, ErrUploadInFlight) {
			s.println(err.Error())
			return
		}
		s.println(s.uploader.View().Status)
		if err == nil {
			s.showJobs(ctx)
		} else if !graphql.IsCanceled(err) {
			s.logger.Debug("upload failed", "err", err)
		}
	}()
}

func (s *Shell) showStatus() {
	v := s.uploader.View()
	s.printf("state: %s\n", v.State)
	if v.Selected != nil {
		s.printf("selected: %s (%s)\n", v.Selected.Name, FormatFileSize(v.Selected.Size))
	}
	if v.Status != "" {
		s.println(v.Status)
	}
}

func (s *Shell) showJobs(ctx context.Context) {
	jobs, err := s.jobs.List(ctx)
	if err != nil && graphql.IsCanceled(err) {
		return
	}
	s.render(jobs, err)
}

func (s *Shell) render(jobs []domain.Job, err error) {
	var buf bytes.Buffer
	_ = RenderJobs(&buf, jobs, err)

	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, _ = s.out.Write(buf.Bytes())
}

func (s *Shell) println(msg string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, _ = fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, _ = fmt.Fprintf(s.out, format, args...)
}
