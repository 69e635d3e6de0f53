package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// target is the location named by the positional arguments.
type target struct {
	// Host is user@host for remote targets and empty for local ones.
	Host string
	// Path is the local path, or the path on Host.
	Path string
}

func (t target) remote() bool { return t.Host != "" }

// String renders the target the way it was typed.
func (t target) String() string {
	if t.remote() {
		return t.Host + ":" + t.Path
	}
	return t.Path
}

// parseTarget interprets [path] or [user@host [remote-path]]. An existing
// local path wins over the remote interpretation.
func parseTarget(arguments []string) (target, error) {
	if len(arguments) == 0 {
		return target{Path: "."}, nil
	}

	first := arguments[0]
	if _, err := os.Stat(first); err == nil {
		if len(arguments) > 1 {
			return target{}, errors.New("too many positional arguments for local scan")
		}
		return target{Path: first}, nil
	}

	isRemote, err := checkRemote(first)
	if !isRemote {
		if len(arguments) > 1 {
			return target{}, errors.New("too many positional arguments")
		}
		return target{Path: first}, nil
	}
	if err != nil {
		return target{}, err
	}
	if len(arguments) > 2 {
		return target{}, errors.New("too many positional arguments for remote scan")
	}

	t := target{Host: first, Path: "."}
	if len(arguments) == 2 && strings.TrimSpace(arguments[1]) != "" {
		t.Path = arguments[1]
	}
	return t, nil
}

// checkRemote reports whether raw looks like user@host and, if so, whether it
// is well formed. Ports belong in --ssh-port.
func checkRemote(raw string) (bool, error) {
	if strings.ContainsAny(raw, `/\`) || strings.Count(raw, "@") != 1 {
		return false, nil
	}

	user, host, _ := strings.Cut(raw, "@")
	switch {
	case user == "" || host == "":
		return true, errors.Errorf("invalid remote target %q: expected user@host", raw)
	case strings.HasPrefix(user, "-") || strings.HasPrefix(host, "-"):
		return true, errors.Errorf("invalid remote target %q", raw)
	case strings.ContainsAny(raw, " \t\r\n"):
		return true, errors.Errorf("invalid remote target %q: spaces are not allowed", raw)
	}

	portErr := errors.Errorf("remote target %q must not include :port; use --ssh-port", raw)
	malformed := errors.Errorf("invalid remote target %q: malformed bracketed host", raw)

	if strings.HasPrefix(host, "[") {
		end := strings.IndexByte(host, ']')
		switch {
		case end == -1:
			return true, malformed
		case end == 1:
			return true, errors.Errorf("invalid remote target %q: empty host", raw)
		case end == len(host)-1:
			return true, nil
		}
		if rest := host[end+1:]; strings.HasPrefix(rest, ":") && digits(rest[1:]) {
			return true, portErr
		}
		return true, malformed
	}
	if strings.Contains(host, "]") {
		return true, malformed
	}
	if name, port, ok := strings.Cut(host, ":"); ok && !strings.Contains(port, ":") && name != "" && digits(port) {
		return true, portErr
	}
	return true, nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
