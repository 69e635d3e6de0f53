package remote

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// confirm asks a yes/no question on the terminal. Tests replace it.
var confirm = askYesNo

// knownHostsFile is the user's OpenSSH known_hosts database.
type knownHostsFile struct {
	path string
}

// openKnownHosts locates ~/.ssh/known_hosts, creating the directory and an
// empty file when they are missing.
func openKnownHosts() (*knownHostsFile, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "unable to locate home directory")
	}
	dir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "unable to create ssh directory")
	}
	path := filepath.Join(dir, "known_hosts")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open known_hosts")
	}
	f.Close()
	return &knownHostsFile{path: path}, nil
}

// hostPattern is the known_hosts spelling of host:port. The default port is
// written bare.
func hostPattern(host string, port int) string {
	if port == 22 {
		return host
	}
	return fmt.Sprintf("[%s]:%d", host, port)
}

func (k *knownHostsFile) line(host string, port int, key ssh.PublicKey) string {
	return knownhosts.Line([]string{hostPattern(host, port)}, key) + "\n"
}

func (k *knownHostsFile) add(host string, port int, key ssh.PublicKey) error {
	f, err := os.OpenFile(k.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrap(err, "unable to open known_hosts for writing")
	}
	if _, err := f.WriteString(k.line(host, port, key)); err != nil {
		f.Close()
		return errors.Wrap(err, "unable to record host key")
	}
	return f.Close()
}

// replace drops every stored key for host:port and records key instead.
func (k *knownHostsFile) replace(host string, port int, key ssh.PublicKey) error {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return errors.Wrap(err, "unable to read known_hosts")
	}
	out := dropHostLines(data, host, port)
	if n := len(out); n > 0 && out[n-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, k.line(host, port, key)...)
	if err := os.WriteFile(k.path, out, 0o600); err != nil {
		return errors.Wrap(err, "unable to rewrite known_hosts")
	}
	return nil
}

// dropHostLines removes the lines whose host list names host:port. Both the
// bare and bracketed forms count for port 22. Comments and unrelated hosts
// survive untouched.
func dropHostLines(data []byte, host string, port int) []byte {
	names := map[string]bool{fmt.Sprintf("[%s]:%d", host, port): true}
	if port == 22 {
		names[host] = true
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if !namesHost(line, names) {
			kept = append(kept, line)
		}
	}
	return []byte(strings.Join(kept, "\n"))
}

func namesHost(line string, names map[string]bool) bool {
	fields := strings.Fields(line)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "@") {
		// @cert-authority and @revoked markers precede the host list.
		fields = fields[1:]
	}
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}
	for _, h := range strings.Split(fields[0], ",") {
		if names[h] {
			return true
		}
	}
	return false
}

// hostKeyCallback verifies server keys against known_hosts. An unknown host
// is trusted on first use and a changed key is replaced, each only after the
// user agrees. Batch mode rejects both.
func hostKeyCallback(host string, port int, batchMode bool) (ssh.HostKeyCallback, error) {
	k, err := openKnownHosts()
	if err != nil {
		return nil, err
	}
	verify, err := knownhosts.New(k.path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse known_hosts")
	}

	return func(hostname string, addr net.Addr, key ssh.PublicKey) error {
		err := verify(hostname, addr, key)
		var keyErr *knownhosts.KeyError
		switch {
		case err == nil:
			return nil
		case !errors.As(err, &keyErr):
			return errors.Wrap(err, "host key verification failed")
		}

		name := hostPattern(host, port)
		got := ssh.FingerprintSHA256(key)
		if len(keyErr.Want) == 0 {
			if batchMode {
				return errors.Errorf("%s is not a known host (%s %s)", name, key.Type(), got)
			}
			question := fmt.Sprintf("Host %s is not in known_hosts.\n%s fingerprint: %s\nTrust it and connect? (yes/no) ", name, key.Type(), got)
			if err := ask(question, "host %s not trusted", name); err != nil {
				return err
			}
			return k.add(host, port, key)
		}

		var stored []string
		for _, w := range keyErr.Want {
			stored = append(stored, ssh.FingerprintSHA256(w.Key))
		}
		if batchMode {
			return errors.Errorf("host key for %s changed: known %s, offered %s", name, strings.Join(stored, ", "), got)
		}
		question := fmt.Sprintf("WARNING: the host key for %s has CHANGED.\nKnown:   %s\nOffered: %s\nReplace the stored key and connect? (yes/no) ", name, strings.Join(stored, ", "), got)
		if err := ask(question, "host key for %s changed", name); err != nil {
			return err
		}
		return k.replace(host, port, key)
	}, nil
}

// ask returns nil when the user agrees and the formatted refusal otherwise.
func ask(question, refusal string, args ...interface{}) error {
	ok, err := confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf(refusal, args...)
	}
	return nil
}
