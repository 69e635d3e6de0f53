package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sadopc/dutree/internal/config"
	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/remote"
	"github.com/sadopc/dutree/internal/scanner"
)

// openEngine creates an engine over the local filesystem or, for user@host
// targets, over SFTP. The returned cleanup function is never nil.
func openEngine(ctx context.Context, cfg *config.Config, t target, logger *logging.Logger) (*engine.Engine, func(), error) {
	var source scanner.Source = scanner.LocalSource{}
	cleanup := func() {}

	if t.remote() {
		src, err := remote.Dial(ctx, remote.Config{
			Target:    t.Host,
			Port:      cfg.Remote.Port,
			BatchMode: cfg.Remote.Batch,
			Timeout:   cfg.Remote.Timeout,
		}, t.Path, logger.Sublogger("remote"))
		if err != nil {
			return nil, cleanup, err
		}
		source = src
		cleanup = func() {
			if err := src.Close(); err != nil {
				logger.Warn(err)
			}
		}
	}

	e, err := engine.New(source, cfg.EngineConfig(), logger.Sublogger("engine"))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return e, cleanup, nil
}

// statusLine prints in-place progress to standard error when it is a
// terminal, and nothing otherwise.
type statusLine struct {
	enabled bool
	printed bool
}

func newStatusLine() *statusLine {
	fd := os.Stderr.Fd()
	return &statusLine{enabled: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (s *statusLine) print(message string) {
	if !s.enabled {
		return
	}
	fmt.Fprintf(color.Error, "\r\033[2K%s", message)
	s.printed = true
}

func (s *statusLine) clear() {
	if s.printed {
		fmt.Fprint(os.Stderr, "\r\033[2K")
		s.printed = false
	}
}

// build scans t.Path to full depth, relaying progress to the status line.
func build(ctx context.Context, e *engine.Engine, path string, depth int) error {
	status := newStatusLine()
	progress := make(chan scanner.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			status.print(fmt.Sprintf("Scanning... %s files, %s dirs, %s",
				humanize.Comma(p.FilesScanned),
				humanize.Comma(p.DirsScanned),
				humanize.IBytes(uint64(max(p.BytesFound, 0)))))
		}
	}()

	_, err := e.BuildCacheWithDepth(ctx, path, depth, progress)
	close(progress)
	<-done
	status.clear()
	return err
}
