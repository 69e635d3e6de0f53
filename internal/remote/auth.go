package remote

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/term"
)

// identityFiles are tried in order from ~/.ssh.
var identityFiles = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// parseSSHTarget splits user@host. A bracketed IPv6 host loses its brackets.
func parseSSHTarget(target string) (user, host string, err error) {
	if strings.TrimSpace(target) == "" {
		return "", "", errors.New("remote target is empty")
	}
	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return "", "", errors.Errorf("remote target %q is not of the form user@host", target)
	}
	if len(host) > 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	return user, host, nil
}

func askYesNo(question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("unable to ask for confirmation: stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "unable to read answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// buildAuthMethods offers the agent, then unencrypted default identities,
// then a password prompt unless batch mode forbids prompting.
func buildAuthMethods(user, host string, batchMode bool) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK")); sock != "" {
		methods = append(methods, ssh.PublicKeysCallback(agentSigners(sock)))
	}
	if signers := identitySigners(); len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	if !batchMode {
		p := &passwordPrompter{prompt: fmt.Sprintf("%s@%s's password: ", user, host)}
		methods = append(methods, ssh.PasswordCallback(p.password), ssh.KeyboardInteractive(p.challenge))
	}
	if len(methods) == 0 {
		return nil, errors.New("no usable ssh credentials: start ssh-agent, add a key under ~/.ssh or drop --ssh-batch")
	}
	return methods, nil
}

func agentSigners(sock string) func() ([]ssh.Signer, error) {
	return func() ([]ssh.Signer, error) {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, errors.Wrap(err, "unable to reach ssh-agent")
		}
		defer conn.Close()
		return agent.NewClient(conn).Signers()
	}
}

// identitySigners loads the default identities that parse without a
// passphrase. Encrypted keys are left to the agent.
func identitySigners() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	var signers []ssh.Signer
	for _, name := range identityFiles {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		if s, err := ssh.ParsePrivateKey(data); err == nil {
			signers = append(signers, s)
		}
	}
	return signers
}

// passwordPrompter reads the password once and answers every later
// challenge with it.
type passwordPrompter struct {
	prompt string

	once   sync.Once
	secret string
	err    error
}

func (p *passwordPrompter) password() (string, error) {
	p.once.Do(func() {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			p.err = errors.New("unable to ask for ssh password: stdin is not a terminal")
			return
		}
		fmt.Fprint(os.Stderr, p.prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		p.secret, p.err = string(b), errors.Wrap(err, "unable to read password")
	})
	return p.secret, p.err
}

// challenge answers keyboard-interactive prompts. Echoed questions are not
// secrets and get an empty answer.
func (p *passwordPrompter) challenge(_, _ string, questions []string, echos []bool) ([]string, error) {
	answers := make([]string, len(questions))
	for i := range questions {
		if i < len(echos) && echos[i] {
			continue
		}
		secret, err := p.password()
		if err != nil {
			return nil, err
		}
		answers[i] = secret
	}
	return answers, nil
}
