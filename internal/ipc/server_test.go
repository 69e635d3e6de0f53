package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/platform"
	"github.com/sadopc/dutree/internal/scanner"
)

type rawResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), make([]byte, 100), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), make([]byte, 50), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	return root
}

func newServer(t *testing.T) *Server {
	t.Helper()
	e, err := engine.New(scanner.LocalSource{}, engine.DefaultConfig(), nil)
	require.NoError(t, err)
	s := NewServer(e, nil)
	s.drives = func() ([]platform.Drive, error) {
		return []platform.Drive{{Path: "/", Total: 100, Free: 40}}, nil
	}
	s.diskAccess = func() (bool, error) { return true, nil }
	return s
}

// roundTrip sends one request per line and returns the responses keyed by id.
func roundTrip(t *testing.T, s *Server, requests ...string) map[string]rawResponse {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	require.NoError(t, s.Serve(context.Background(), in, &out))

	responses := make(map[string]rawResponse)
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var r rawResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		responses[string(r.ID)] = r
	}
	require.Len(t, responses, len(requests))
	return responses
}

func request(id int, command string, args interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{"id": id, "command": command, "args": args})
	return string(b)
}

func TestServe_GetResultWithDepth(t *testing.T) {
	root := fixture(t)
	s := newServer(t)

	responses := roundTrip(t, s,
		request(1, "get_result_with_depth", map[string]interface{}{"path": root, "max_depth": 1}),
		request(2, "get_directory_children_with_depth", map[string]interface{}{"path": filepath.Join(root, "empty"), "max_depth": 1}),
	)

	r := responses["1"]
	require.Nil(t, r.Error)
	var node model.Node
	require.NoError(t, json.Unmarshal(r.Result, &node))
	assert.Equal(t, int64(150), node.Size)
	assert.Equal(t, 3, node.ChildrenCount)
	assert.True(t, node.IsDirectory)
	require.Len(t, node.Children, 3)
	assert.Equal(t, "a.txt", node.Children[0].Name)

	assert.Nil(t, responses["2"].Error)
	assert.JSONEq(t, "[]", string(responses["2"].Result))
}

func TestServe_ErrorKinds(t *testing.T) {
	root := fixture(t)
	s := newServer(t)

	responses := roundTrip(t, s,
		request(1, "get_result_with_depth", map[string]interface{}{"path": filepath.Join(root, "a.txt"), "max_depth": 1}),
		request(2, "get_result_with_depth", map[string]interface{}{"path": filepath.Join(root, "missing")}),
		request(3, "get_result_with_depth", map[string]interface{}{"path": root, "max_depth": -1}),
		request(4, "select_directory", nil),
		request(5, "no_such_command", nil),
		`{"id":6,"command":"build_cache","args":{"path":42}}`,
		`not json`,
	)

	kinds := map[string]string{
		"1":    "not_a_directory",
		"2":    "invalid_path",
		"3":    "invalid_depth",
		"4":    KindUnsupported,
		"5":    KindUnknownCommand,
		"6":    KindInvalidRequest,
		"null": KindInvalidRequest,
	}
	for id, kind := range kinds {
		r, found := responses[id]
		require.True(t, found, "missing response %s", id)
		require.NotNil(t, r.Error, "response %s", id)
		assert.Equal(t, kind, r.Error.Kind, "response %s", id)
		assert.NotEmpty(t, r.Error.Message)
	}
}

func TestServe_BuildAndDelete(t *testing.T) {
	root := fixture(t)
	s := newServer(t)

	responses := roundTrip(t, s, request(1, "build_cache", map[string]interface{}{"path": root}))
	require.Nil(t, responses["1"].Error)
	var info struct {
		Root       string `json:"root"`
		BuiltDepth int    `json:"built_depth"`
		Size       int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(responses["1"].Result, &info))
	assert.Equal(t, root, info.Root)
	assert.Equal(t, 2, info.BuiltDepth)
	assert.Equal(t, int64(150), info.Size)

	responses = roundTrip(t, s,
		request(2, "delete_items", map[string]interface{}{"paths": []string{filepath.Join(root, "sub", "b.txt"), "/definitely/elsewhere"}}),
	)
	var report deleteReport
	require.NoError(t, json.Unmarshal(responses["2"].Result, &report))
	assert.Equal(t, int64(50), report.Freed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)
	assert.Nil(t, report.Results[0].Error)
	require.NotNil(t, report.Results[1].Error)
	assert.Equal(t, "outside_root", report.Results[1].Error.Kind)

	responses = roundTrip(t, s,
		request(3, "get_result_with_depth", map[string]interface{}{"path": root, "max_depth": 0}),
		request(4, "cached_roots", nil),
	)
	var node model.Node
	require.NoError(t, json.Unmarshal(responses["3"].Result, &node))
	assert.Equal(t, int64(100), node.Size)
	assert.JSONEq(t, fmt.Sprintf("[%q]", root), string(responses["4"].Result))
}

func TestServe_StatsAndPlatform(t *testing.T) {
	s := newServer(t)
	responses := roundTrip(t, s,
		request(1, "get_error_stats", nil),
		request(2, "get_system_drives", nil),
		request(3, "request_disk_access", nil),
	)

	assert.JSONEq(t, `{"permission_errors":0,"not_found_errors":0,"other_errors":0}`, string(responses["1"].Result))
	assert.JSONEq(t, `[{"path":"/","total":100,"free":40}]`, string(responses["2"].Result))
	assert.Equal(t, "true", string(responses["3"].Result))

	responses = roundTrip(t, s, request(4, "reset_error_stats", nil))
	assert.JSONEq(t, `{"ok":true}`, string(responses["4"].Result))
}

func TestServe_ConcurrentRequests(t *testing.T) {
	root := fixture(t)
	s := newServer(t)

	var requests []string
	for i := 0; i < 20; i++ {
		requests = append(requests, request(i, "get_result_with_depth", map[string]interface{}{"path": root, "max_depth": i % 3}))
	}
	responses := roundTrip(t, s, requests...)
	for id, r := range responses {
		require.Nil(t, r.Error, id)
		var node model.Node
		require.NoError(t, json.Unmarshal(r.Result, &node))
		assert.Equal(t, int64(150), node.Size, id)
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	s := newServer(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, pr, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
