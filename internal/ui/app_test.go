package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/model"
)

func TestScanFailureQuits(t *testing.T) {
	a := NewApp(nil, "/tmp", Options{})
	boom := errors.New("scan failed")

	_, cmd := a.Update(ScanDoneMsg{Err: boom})
	assert.ErrorIs(t, a.FatalError(), boom)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestExportResultIsNotFatal(t *testing.T) {
	a := NewApp(nil, "/tmp", Options{})

	a.Update(ExportDoneMsg{Path: "out.json"})
	assert.NoError(t, a.FatalError())
	assert.Equal(t, "Exported to out.json", a.statusMsg)

	a.Update(ExportDoneMsg{Path: "out.json", Err: errors.New("disk full")})
	assert.NoError(t, a.FatalError())
	assert.Equal(t, "Export failed: disk full", a.statusMsg)
}

func TestMarkedSizeCountsVisibleItemsOnly(t *testing.T) {
	a := NewApp(nil, "/tmp", Options{})
	items := []*model.Node{
		{Name: "a.txt", Path: "/tmp/root/a.txt", Size: 10, Usage: 20},
		{Name: "b.txt", Path: "/tmp/root/b.txt", Size: 4, Usage: 8},
	}
	a.marked = map[string]bool{
		"/tmp/root/a.txt":       true,
		"/tmp/root/missing.txt": true,
	}

	assert.Equal(t, int64(20), a.markedSize(items))
	a.useApparent = true
	assert.Equal(t, int64(10), a.markedSize(items))
}

func TestDeleteStatus(t *testing.T) {
	tests := map[string]struct {
		results []engine.DeleteResult
		want    string
	}{
		"empty": {nil, ""},
		"all freed": {
			[]engine.DeleteResult{{Path: "/r/a", Freed: 2048}, {Path: "/r/b", Freed: 1024}},
			"Deleted 2 item(s), freed 3.0 KiB",
		},
		"first failure named": {
			[]engine.DeleteResult{{Path: "/r/a", Freed: 2048}, {Path: "/r/b", Err: errors.New("busy")}},
			"Delete: 1 failed (busy)",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, deleteStatus(engine.DeleteReport{Results: tc.results}))
		})
	}
}
