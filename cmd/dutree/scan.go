package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/util"
)

// listing holds the output flags shared by scan and children.
type listing struct {
	depth   int
	json    bool
	minSize string
	top     int
}

func (l *listing) register(command *cobra.Command) {
	flags := command.Flags()
	flags.SortFlags = false
	flags.IntVarP(&l.depth, "depth", "d", -1, "Levels of children to return (default from configuration)")
	flags.BoolVar(&l.json, "json", false, "Print JSON instead of a table")
	flags.StringVar(&l.minSize, "min-size", "", "Omit entries smaller than this size")
	flags.IntVarP(&l.top, "top", "t", 0, "Print at most this many entries per directory (0 = all)")
}

// query opens the engine for the target named by arguments and hands it to
// fn together with the resolved depth.
func (l *listing) query(command *cobra.Command, arguments []string, fn func(context.Context, *engine.Engine, target, int) error) error {
	t, err := parseTarget(arguments)
	if err != nil {
		return err
	}
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

	e, cleanup, err := openEngine(ctx, cfg, t, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	depth := l.depth
	if depth < 0 {
		depth = e.DefaultDepth()
	}
	// Build one level deeper than displayed so the deepest rows carry counts.
	buildDepth := depth + 1
	if buildDepth < depth {
		buildDepth = depth
	}
	if err := build(ctx, e, t.Path, buildDepth); err != nil {
		return err
	}
	if err := fn(ctx, e, t, depth); err != nil {
		return err
	}
	if stats := e.GetErrorStats(); stats.Total() > 0 {
		Warning(fmt.Sprintf("%d entries could not be read (%d permission denied)",
			stats.Total(), stats.PermissionErrors))
	}
	return nil
}

// prune drops entries under minSize and trims each directory to top entries.
func (l *listing) prune(nodes []*model.Node) ([]*model.Node, error) {
	minSize, err := util.ParseSize(l.minSize)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --min-size")
	}
	var walk func([]*model.Node) []*model.Node
	walk = func(nodes []*model.Node) []*model.Node {
		kept := make([]*model.Node, 0, len(nodes))
		for _, n := range nodes {
			if n.Size < minSize {
				continue
			}
			n.Children = walk(n.Children)
			kept = append(kept, n)
		}
		if l.top > 0 && len(kept) > l.top {
			kept = kept[:l.top]
		}
		return kept
	}
	return walk(nodes), nil
}

func (l *listing) print(w io.Writer, parent *model.Node, nodes []*model.Node) error {
	nodes, err := l.prune(nodes)
	if err != nil {
		return err
	}
	if l.json {
		data, err := json.MarshalIndent(nodes, "", "  ")
		if err != nil {
			return errors.Wrap(err, "unable to encode JSON output")
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	var row func(n *model.Node, indent int)
	row = func(n *model.Node, indent int) {
		name := n.Name
		if n.IsDirectory {
			name = color.BlueString(name + "/")
		}
		items := ""
		if n.IsDirectory {
			items = humanize.Comma(int64(n.ChildrenCount))
		}
		fmt.Fprintf(tw, "%s\t%s\t%5.1f%%\t%s\t %s%s\n",
			util.FormatSize(n.Size),
			util.FormatSize(n.Usage),
			util.Percent(n.Size, parent.Size),
			items,
			strings.Repeat("  ", indent),
			name)
		for _, c := range n.Children {
			row(c, indent+1)
		}
	}

	fmt.Fprintln(tw, "SIZE\tDISK\tSHARE\tITEMS\t NAME")
	for _, n := range nodes {
		row(n, 0)
	}
	return tw.Flush()
}

func scanMain(command *cobra.Command, arguments []string) error {
	return scanConfiguration.query(command, arguments, func(ctx context.Context, e *engine.Engine, t target, depth int) error {
		node, err := e.GetResultWithDepth(ctx, t.Path, depth)
		if err != nil {
			return err
		}
		if scanConfiguration.json {
			return scanConfiguration.print(color.Output, node, []*model.Node{node})
		}
		fmt.Fprintf(color.Output, "%s  %s (%s on disk), %s entries\n",
			color.New(color.Bold).Sprint(node.Path),
			util.FormatSize(node.Size),
			util.FormatSize(node.Usage),
			humanize.Comma(int64(node.ChildrenCount)))
		return scanConfiguration.print(color.Output, node, node.Children)
	})
}

var scanCommand = &cobra.Command{
	Use:   "scan [path | user@host [remote-path]]",
	Short: "Scan a directory and print its size breakdown",
	Long: heredoc.Doc(`
		Scan a directory and print the sizes of its entries, largest first.
		Directories are expanded --depth levels deep.
	`),
	Args: cobra.MaximumNArgs(2),
	Run:  Mainify(scanMain),
}

var scanConfiguration listing

func childrenMain(command *cobra.Command, arguments []string) error {
	return childrenConfiguration.query(command, arguments, func(ctx context.Context, e *engine.Engine, t target, depth int) error {
		parent, err := e.GetResultWithDepth(ctx, t.Path, 0)
		if err != nil {
			return err
		}
		children, err := e.GetDirectoryChildrenWithDepth(ctx, t.Path, depth)
		if err != nil {
			return err
		}
		return childrenConfiguration.print(color.Output, parent, children)
	})
}

var childrenCommand = &cobra.Command{
	Use:   "children [path | user@host [remote-path]]",
	Short: "List the entries of a directory",
	Long: heredoc.Doc(`
		List the immediate entries of a directory, largest first. With
		--depth N each listed directory carries N levels of its own entries.
	`),
	Args: cobra.MaximumNArgs(2),
	Run:  Mainify(childrenMain),
}

var childrenConfiguration listing

func init() {
	scanConfiguration.register(scanCommand)
	childrenConfiguration.register(childrenCommand)
}

