// Package ui is the interactive terminal browser. It navigates the trees
// cached by an engine, or an imported export, one directory at a time.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/dutree/internal/cache"
	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/ops"
	"github.com/sadopc/dutree/internal/scanner"
	"github.com/sadopc/dutree/internal/ui/components"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// DefaultExportPath is where E writes when no export path is configured.
const DefaultExportPath = "dutree-export.json"

type ViewMode int

const (
	ViewTree ViewMode = iota
	ViewTreemap
)

// AppState is the screen the browser is showing.
type AppState int

const (
	StateScanning AppState = iota
	StateBrowsing
	StateConfirmDelete
	StateHelp
	StateExporting
)

// ScanDoneMsg ends a scan or import. Root carries one level of children.
type ScanDoneMsg struct {
	Root *model.Node
	Info cache.Info
	Err  error
}

type DeleteDoneMsg struct {
	Report engine.DeleteReport
}

type ExportDoneMsg struct {
	Path string
	Err  error
}

type previewMsg struct {
	seq   int
	stats ops.PreviewStats
	err   error
}

type tickMsg time.Time

// Options are the presentation settings of the browser.
type Options struct {
	ExportPath string
	Version    string
	// MinSize hides entries smaller than this many bytes.
	MinSize    int64
	ShowHidden bool
}

// scanRelay carries progress from the scan goroutine to the update loop
// and lets either side abort the scan.
type scanRelay struct {
	mu     sync.Mutex
	latest scanner.Progress
	cancel context.CancelFunc
}

func (r *scanRelay) publish(p scanner.Progress) {
	r.mu.Lock()
	r.latest = p
	r.mu.Unlock()
}

func (r *scanRelay) snapshot() scanner.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

func (r *scanRelay) start(cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
}

func (r *scanRelay) abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// App is the root Bubble Tea model.
type App struct {
	ScanPath   string
	ImportPath string

	opts   Options
	engine *engine.Engine
	// tree holds an imported export; nil when browsing an engine.
	tree *model.Node

	state         AppState
	viewMode      ViewMode
	width, height int
	layout        style.Layout
	theme         style.Theme
	keys          KeyMap

	root, current *model.Node
	// history is the stack of directories entered from the root.
	history     []string
	sortConfig  model.SortConfig
	sortedItems []*model.Node
	filtered    int
	cursor      int
	offset      int
	useApparent bool
	showHidden  bool

	marked      map[string]bool
	markedItems []components.ConfirmItem
	preview     *ops.PreviewStats
	previewSeq  int

	relay        scanRelay
	scanProgress scanner.Progress
	errStats     model.ErrorStats

	statusMsg string
	fatalErr  error
}

func newApp(opts Options) *App {
	return &App{
		opts:       opts,
		state:      StateScanning,
		viewMode:   ViewTree,
		theme:      style.DefaultTheme(),
		keys:       DefaultKeyMap(),
		sortConfig: model.DefaultSort(),
		showHidden: opts.ShowHidden,
		marked:     map[string]bool{},
	}
}

// NewApp creates a browser that scans scanPath through e.
func NewApp(e *engine.Engine, scanPath string, opts Options) *App {
	a := newApp(opts)
	a.engine, a.ScanPath = e, scanPath
	return a
}

// NewAppFromImport creates a read-only browser over an exported tree.
func NewAppFromImport(importPath string, opts Options) *App {
	a := newApp(opts)
	a.ImportPath = importPath
	return a
}

func (a *App) imported() bool { return a.engine == nil }

// FatalError is the scan or import failure that ended the program, if any.
func (a *App) FatalError() error { return a.fatalErr }

func (a *App) Init() tea.Cmd {
	if a.imported() {
		return a.importCmd()
	}
	return tea.Batch(a.scanCmd(), a.tickCmd())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout = style.NewLayout(msg.Width, msg.Height)

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tickMsg:
		if a.state != StateScanning {
			return a, nil
		}
		a.scanProgress = a.relay.snapshot()
		return a, a.tickCmd()

	case ScanDoneMsg:
		return a, a.finishScan(msg)

	case previewMsg:
		if msg.err == nil && msg.seq == a.previewSeq && a.state == StateConfirmDelete {
			a.preview = &msg.stats
		}

	case DeleteDoneMsg:
		a.state = StateBrowsing
		a.clearMarks()
		a.statusMsg = deleteStatus(msg.Report)
		if err := a.reload(); err != nil {
			a.statusMsg = fmt.Sprintf("Reload failed: %v", err)
		}
		return a, tea.ClearScreen

	case ExportDoneMsg:
		a.state = StateBrowsing
		a.statusMsg = "Exported to " + msg.Path
		if msg.Err != nil {
			a.statusMsg = fmt.Sprintf("Export failed: %v", msg.Err)
		}
	}
	return a, nil
}

func (a *App) finishScan(msg ScanDoneMsg) tea.Cmd {
	if msg.Err != nil {
		a.fatalErr = msg.Err
		return tea.Quit
	}
	a.fatalErr = nil
	if a.imported() {
		a.tree = msg.Root
	}
	a.root, a.current = msg.Root, msg.Root
	a.errStats = msg.Info.Errors
	a.history = nil
	a.state = StateBrowsing
	a.resetView()
	return tea.ClearScreen
}

// deleteStatus summarises a deletion batch for the status bar, naming the
// first failure when there is one.
func deleteStatus(report engine.DeleteReport) string {
	if len(report.Results) == 0 {
		return ""
	}
	if failed := report.Failed(); failed > 0 {
		for _, res := range report.Results {
			if res.Err != nil {
				return fmt.Sprintf("Delete: %d failed (%v)", failed, res.Err)
			}
		}
	}
	return fmt.Sprintf("Deleted %d item(s), freed %s", len(report.Results), util.FormatSize(report.Freed()))
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	switch a.state {
	case StateScanning:
		return components.RenderScanProgress(a.theme, a.scanProgress, a.width, a.height)
	case StateHelp:
		return components.RenderHelp(a.theme, a.keys.HelpSections(), a.width, a.height)
	case StateConfirmDelete:
		return components.RenderConfirmDialog(a.theme, a.markedItems, a.preview, a.width, a.height)
	case StateBrowsing, StateExporting:
		return a.browseView()
	}
	return ""
}

func (a *App) browseView() string {
	var content string
	if a.viewMode == ViewTreemap {
		content = components.RenderTreemap(a.theme, a.sortedItems, a.useApparent,
			a.layout.ContentWidth(), a.layout.ContentHeight())
	} else {
		tv := &components.TreeView{
			Theme:       a.theme,
			Layout:      a.layout,
			Items:       a.sortedItems,
			Cursor:      a.cursor,
			Offset:      a.offset,
			Marked:      a.marked,
			UseApparent: a.useApparent,
			ParentSize:  a.sizeOf(a.current),
		}
		tv.EnsureVisible()
		a.offset = tv.Offset
		content = tv.Render()
	}

	return strings.Join([]string{
		components.RenderHeader(a.theme, a.root, a.useApparent, a.width),
		components.RenderBreadcrumb(a.theme, a.root, a.current, a.width),
		components.RenderTabBar(a.theme, int(a.viewMode), a.sortConfig, a.width),
		content,
		components.RenderStatusBar(a.theme, components.StatusInfo{
			CurrentDir:  a.current,
			ItemCount:   len(a.sortedItems),
			Filtered:    a.filtered,
			MarkedCount: len(a.marked),
			MarkedSize:  a.markedSize(a.sortedItems),
			UseApparent: a.useApparent,
			Errors:      a.errStats,
			ReadOnly:    a.imported(),
			Message:     a.statusMsg,
		}, a.width),
	}, "\n")
}
