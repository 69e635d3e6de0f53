package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/ops"
	"github.com/sadopc/dutree/internal/util"
)

func deleteMain(command *cobra.Command, arguments []string) error {
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

	e, cleanup, err := openEngine(ctx, cfg, target{Path: deleteConfiguration.root}, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := build(ctx, e, deleteConfiguration.root, engine.FullDepth); err != nil {
		return err
	}

	if !deleteConfiguration.yes {
		stats, err := ops.Preview(ctx, arguments)
		if err != nil {
			return err
		}
		fmt.Fprintf(color.Output, "Delete %d item(s) containing %s files in %s directories (%s)?\n",
			len(arguments), util.FormatCount(stats.Files), util.FormatCount(stats.Dirs), util.FormatSize(stats.Bytes))
		ok, err := confirm()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("deletion cancelled")
		}
	}

	report := e.DeleteItems(ctx, arguments)
	for _, r := range report.Results {
		switch {
		case r.Err != nil:
			color.Red("failed   %s: %v\n", r.Path, r.Err)
		case r.CoveredBy != "":
			fmt.Fprintf(color.Output, "covered  %s (by %s)\n", r.Path, r.CoveredBy)
		default:
			fmt.Fprintf(color.Output, "deleted  %s (%s)\n", r.Path, util.FormatSize(r.Freed))
		}
	}
	fmt.Fprintf(color.Output, "Freed %s\n", util.FormatSize(report.Freed()))
	if failed := report.Failed(); failed > 0 {
		return errors.Errorf("%d of %d deletions failed", failed, len(report.Results))
	}
	return nil
}

func confirm() (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, errors.New("refusing to delete without confirmation; pass --yes")
	}
	fmt.Fprint(os.Stderr, "Proceed (y/N)? ")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, "unable to read confirmation")
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

var deleteCommand = &cobra.Command{
	Use:   "delete --root <dir> <path>...",
	Short: "Delete entries below a scanned root",
	Long: heredoc.Doc(`
		Scan --root, then delete each path and report the space freed. Paths
		must lie strictly below the root. A path below another path of the same
		batch is reported as covered by it.
	`),
	Args: cobra.MinimumNArgs(1),
	Run:  Mainify(deleteMain),
}

var deleteConfiguration struct {
	// root is the directory scanned before deleting.
	root string
	// yes skips the confirmation prompt.
	yes bool
}

func init() {
	flags := deleteCommand.Flags()
	flags.SortFlags = false
	flags.StringVar(&deleteConfiguration.root, "root", "", "Scanned root the paths belong to")
	flags.BoolVarP(&deleteConfiguration.yes, "yes", "y", false, "Do not ask for confirmation")
	deleteCommand.MarkFlagRequired("root")
}
