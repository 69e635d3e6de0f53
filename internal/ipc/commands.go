package ipc

import (
	"context"
	"encoding/json"

	"github.com/sadopc/dutree/internal/engine"
)

func (s *Server) buildCache(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args depthArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	return s.engine.BuildCacheWithDepth(ctx, args.Path, s.depth(args.MaxDepth), nil)
}

func (s *Server) getResultWithDepth(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args depthArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	return s.engine.GetResultWithDepth(ctx, args.Path, s.depth(args.MaxDepth))
}

func (s *Server) getDirectoryChildrenWithDepth(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args depthArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	return s.engine.GetDirectoryChildrenWithDepth(ctx, args.Path, s.depth(args.MaxDepth))
}

func (s *Server) getErrorStats(context.Context, json.RawMessage) (interface{}, error) {
	return s.engine.GetErrorStats(), nil
}

func (s *Server) resetErrorStats(context.Context, json.RawMessage) (interface{}, error) {
	s.engine.ResetErrorStats()
	return ok{OK: true}, nil
}

func (s *Server) deleteItems(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args deleteArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if len(args.Paths) == 0 {
		return nil, &Error{Kind: KindInvalidRequest, Message: "no paths given"}
	}

	report := s.engine.DeleteItems(ctx, args.Paths)
	out := deleteReport{
		Results: make([]deleteResult, len(report.Results)),
		Freed:   report.Freed(),
		Failed:  report.Failed(),
	}
	for i, r := range report.Results {
		out.Results[i] = deleteResult{Path: r.Path, Freed: r.Freed, CoveredBy: r.CoveredBy}
		if r.Err != nil {
			out.Results[i].Error = toError(r.Err)
		}
	}
	return out, nil
}

func (s *Server) getSystemDrives(context.Context, json.RawMessage) (interface{}, error) {
	return s.drives()
}

func (s *Server) requestDiskAccess(context.Context, json.RawMessage) (interface{}, error) {
	return s.diskAccess()
}

func (s *Server) selectDirectory(context.Context, json.RawMessage) (interface{}, error) {
	return nil, &Error{Kind: KindUnsupported, Message: "directory selection requires a graphical front end"}
}

func (s *Server) cachedRoots(context.Context, json.RawMessage) (interface{}, error) {
	roots := s.engine.Roots()
	if roots == nil {
		roots = []string{}
	}
	return roots, nil
}

func (s *Server) invalidate(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var args pathArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, &Error{Kind: engine.Kind(engine.ErrInvalidPath), Message: "path is required"}
	}
	return ok{OK: s.engine.Invalidate(args.Path)}, nil
}
