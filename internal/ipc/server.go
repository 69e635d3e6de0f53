// Package ipc serves the engine's command surface as newline-delimited JSON
// over a pair of streams, typically a front end's pipe to stdin and stdout.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/platform"
)

// maxRequestSize bounds a single request line.
const maxRequestSize = 4 << 20

// handler executes one command with its raw arguments.
type handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Server dispatches requests to an engine. Each request runs on its own
// goroutine; responses may therefore arrive out of order and carry the
// request's id.
type Server struct {
	engine   *engine.Engine
	logger   *logging.Logger
	handlers map[string]handler

	// drives and diskAccess are swapped out in tests.
	drives     func() ([]platform.Drive, error)
	diskAccess func() (bool, error)

	writeLock sync.Mutex
}

// NewServer creates a server over e.
func NewServer(e *engine.Engine, logger *logging.Logger) *Server {
	s := &Server{
		engine:     e,
		logger:     logger,
		drives:     platform.SystemDrives,
		diskAccess: platform.RequestDiskAccess,
	}
	s.handlers = map[string]handler{
		"build_cache":                       s.buildCache,
		"get_result_with_depth":             s.getResultWithDepth,
		"get_directory_children_with_depth": s.getDirectoryChildrenWithDepth,
		"get_error_stats":                   s.getErrorStats,
		"reset_error_stats":                 s.resetErrorStats,
		"delete_items":                      s.deleteItems,
		"get_system_drives":                 s.getSystemDrives,
		"request_disk_access":               s.requestDiskAccess,
		"select_directory":                  s.selectDirectory,
		"cached_roots":                      s.cachedRoots,
		"invalidate":                        s.invalidate,
	}
	return s
}

// Serve reads requests from r until it is exhausted or ctx is done, and
// writes responses to w. In-flight requests are allowed to finish before
// Serve returns.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxRequestSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, more := <-lines:
			if !more {
				inflight.Wait()
				select {
				case err := <-readErr:
					return errors.Wrap(err, "unable to read requests")
				default:
					return nil
				}
			}
			if len(line) == 0 {
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				s.write(encoder, s.handle(ctx, line))
			}()
		}
	}
}

func (s *Server) write(encoder *json.Encoder, resp Response) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if err := encoder.Encode(resp); err != nil {
		s.logger.Warn(errors.Wrap(err, "unable to write response"))
	}
}

// handle decodes and executes one request line.
func (s *Server) handle(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{
			ID:    json.RawMessage("null"),
			Error: &Error{Kind: KindInvalidRequest, Message: err.Error()},
		}
	}
	if len(req.ID) == 0 {
		req.ID = json.RawMessage("null")
	}

	h, found := s.handlers[req.Command]
	if !found {
		return Response{ID: req.ID, Error: &Error{
			Kind:    KindUnknownCommand,
			Message: "unknown command " + req.Command,
		}}
	}

	s.logger.Debugf("%s %s", req.Command, req.Args)
	result, err := h(ctx, req.Args)
	if err != nil {
		s.logger.Debugf("%s failed: %v", req.Command, err)
		return Response{ID: req.ID, Error: toError(err)}
	}
	return Response{ID: req.ID, Result: result}
}

func toError(err error) *Error {
	var protocolErr *Error
	if errors.As(err, &protocolErr) {
		return protocolErr
	}
	return &Error{Kind: engine.Kind(err), Message: err.Error()}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Kind: KindInvalidRequest, Message: "invalid arguments: " + err.Error()}
	}
	return nil
}

func (s *Server) depth(d *int) int {
	if d == nil {
		return s.engine.DefaultDepth()
	}
	return *d
}
