package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/ops"
	"github.com/sadopc/dutree/internal/ui"
	"github.com/sadopc/dutree/internal/util"
)

func rootMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.hidden && rootConfiguration.noHidden {
		return errors.New("--hidden and --no-hidden cannot be used together")
	}
	minSize, err := util.ParseSize(rootConfiguration.minSize)
	if err != nil {
		return errors.Wrap(err, "invalid --min-size")
	}
	opts := ui.Options{
		ExportPath: ui.DefaultExportPath,
		Version:    version,
		MinSize:    minSize,
		ShowHidden: !rootConfiguration.noHidden,
	}

	if rootConfiguration.importPath != "" {
		if len(arguments) > 0 {
			return errors.New("--import cannot be used with scan targets")
		}
		if rootConfiguration.exportPath != "" {
			return reexport(rootConfiguration.importPath, rootConfiguration.exportPath)
		}
		return runTUI(ui.NewAppFromImport(rootConfiguration.importPath, opts))
	}

	t, err := parseTarget(arguments)
	if err != nil {
		return err
	}
	cfg, err := loadConfiguration(command)
	if err != nil {
		return err
	}

	headless := rootConfiguration.exportPath != ""
	if !headless && cfg.Log.File == "" {
		// The terminal belongs to the browser.
		cfg.Log.Level = "disabled"
	}
	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), terminationSignals...)
	defer stop()

	e, cleanup, err := openEngine(ctx, cfg, t, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if headless {
		return exportScan(ctx, e, t, rootConfiguration.exportPath, logger)
	}
	return runTUI(ui.NewApp(e, t.Path, opts))
}

func runTUI(app *ui.App) error {
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return app.FatalError()
}

// exportScan scans t and writes the whole tree in ncdu format.
func exportScan(ctx context.Context, e *engine.Engine, t target, path string, logger *logging.Logger) error {
	if path != "-" {
		fmt.Printf("Scanning %s...\n", t)
	}
	if err := build(ctx, e, t.Path, engine.FullDepth); err != nil {
		return errors.Wrap(err, "scan failed")
	}
	tree, err := e.GetResultWithDepth(ctx, t.Path, engine.FullDepth)
	if err != nil {
		return err
	}
	if stats := e.GetErrorStats(); stats.Total() > 0 {
		logger.Warn(errors.Errorf("%d entries could not be read", stats.Total()))
	}
	if err := ops.ExportJSON(tree, path, version); err != nil {
		return errors.Wrap(err, "export failed")
	}
	if path != "-" {
		fmt.Printf("Exported to %s\n", path)
	}
	return nil
}

func reexport(importPath, exportPath string) error {
	tree, err := ops.ImportJSON(importPath)
	if err != nil {
		return errors.Wrap(err, "unable to import scan")
	}
	if err := ops.ExportJSON(tree, exportPath, version); err != nil {
		return errors.Wrap(err, "export failed")
	}
	if exportPath != "-" {
		fmt.Printf("Exported to %s\n", exportPath)
	}
	return nil
}

var rootCommand = &cobra.Command{
	Use:   "dutree [path | user@host [remote-path]]",
	Short: "Interactive disk usage analyzer",
	Long: heredoc.Doc(`
		dutree scans a directory tree, caches the sizes of every directory and
		lets you browse, filter and delete entries from the terminal.

		A target of the form user@host is scanned over SFTP. The remote path
		defaults to the login directory.
	`),
	Example: heredoc.Doc(`
		  dutree .                          Browse the current directory
		  dutree --export scan.json /home   Scan /home and write ncdu JSON
		  dutree --import scan.json         Browse an exported scan
		  dutree --min-size 10MiB /var      Hide entries under 10 MiB
		  dutree --ssh-port 2222 alice@host /var/log
	`),
	Version:      version,
	Args:         cobra.MaximumNArgs(2),
	Run:          Mainify(rootMain),
	SilenceUsage: true,
}

var rootConfiguration struct {
	// exportPath triggers a headless scan written to this file ("-" for
	// standard output).
	exportPath string
	// importPath browses or re-exports an ncdu JSON file.
	importPath string
	// minSize hides smaller entries in the browser.
	minSize string
	// hidden and noHidden toggle dot-entries in the browser.
	hidden   bool
	noHidden bool
}

func init() {
	cobra.EnableCommandSorting = false

	rootCommand.SetVersionTemplate("dutree {{ .Version }}\n")
	rootCommand.CompletionOptions.HiddenDefaultCmd = true

	registerGlobalFlags(rootCommand.PersistentFlags())

	flags := rootCommand.Flags()
	flags.SortFlags = false
	flags.StringVar(&rootConfiguration.exportPath, "export", "", "Scan headlessly and export to a JSON file ('-' for stdout)")
	flags.StringVar(&rootConfiguration.importPath, "import", "", "Browse an exported JSON file")
	flags.StringVar(&rootConfiguration.minSize, "min-size", "", "Hide entries smaller than this size (e.g. 10MB, 1GiB)")
	flags.BoolVar(&rootConfiguration.hidden, "hidden", false, "Show hidden files (default)")
	flags.BoolVar(&rootConfiguration.noHidden, "no-hidden", false, "Hide hidden files")

	rootCommand.AddCommand(
		scanCommand,
		childrenCommand,
		deleteCommand,
		drivesCommand,
		serveCommand,
		versionCommand,
	)
}
