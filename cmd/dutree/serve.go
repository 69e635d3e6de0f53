package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sadopc/dutree/internal/ipc"
)

func serveMain(command *cobra.Command, arguments []string) error {
	cfg, err := loadConfiguration(command)
	if err != nil {
		return err
	}
	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), terminationSignals...)
	defer stop()

	var t target
	if len(arguments) > 0 {
		if t, err = parseTarget(arguments); err != nil {
			return err
		}
		if !t.remote() {
			return errors.New("serve only accepts a user@host target")
		}
	}
	e, cleanup, err := openEngine(ctx, cfg, t, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Printf("serving requests on standard input")
	err = ipc.NewServer(e, logger.Sublogger("ipc")).Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var serveCommand = &cobra.Command{
	Use:   "serve [user@host [remote-path]]",
	Short: "Answer JSON requests on standard input",
	Long: heredoc.Doc(`
		Read newline-delimited JSON requests from standard input and write one
		response per line to standard output. Requests are answered
		concurrently and matched by their "id".

		  {"id": 1, "command": "build_cache", "args": {"path": "/home", "max_depth": 3}}
		  {"id": 2, "command": "get_directory_children_with_depth", "args": {"path": "/home"}}

		Commands: build_cache, get_result_with_depth,
		get_directory_children_with_depth, get_error_stats, reset_error_stats,
		delete_items, get_system_drives, request_disk_access, select_directory,
		cached_roots, invalidate.

		With a user@host argument every path is resolved on the remote host.
	`),
	Args: cobra.MaximumNArgs(2),
	Run:  Mainify(serveMain),
}
