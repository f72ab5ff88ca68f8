package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/util/keygen"
)

// Markers delimiting the inventory block in the hosts file.
const (
	hostsBlockBegin = "# BEGIN k3stage inventory"
	hostsBlockEnd   = "# END k3stage inventory"
)

// DefaultHostsPath is the system hosts file.
const DefaultHostsPath = "/etc/hosts"

const rsaKeyBits = 4096

// Preparer performs the one-time host setup.
type Preparer struct {
	Runner    shell.Runner
	HostsPath string
	// KeyPath overrides the configured SSH key location.
	KeyPath string
}

// PrepareResult reports what Prepare changed.
type PrepareResult struct {
	Node            config.Node
	HostnameChanged bool
	HostsUpdated    bool
	KeyPath         string
	KeyCreated      bool
	PublicKey       string
}

// Prepare sets up the machine that will act as node name. It refuses names
// that are not in the inventory and changes nothing in that case.
func (p *Preparer) Prepare(ctx context.Context, cfg *config.Config, name string) (*PrepareResult, error) {
	n, ok := cfg.NodeByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", node.ErrNodeNotRegistered, name)
	}
	res := &PrepareResult{Node: n}

	changed, err := SetHostname(ctx, p.Runner, n.Name)
	if err != nil {
		return nil, err
	}
	res.HostnameChanged = changed

	hostsPath := p.HostsPath
	if hostsPath == "" {
		hostsPath = DefaultHostsPath
	}
	if res.HostsUpdated, err = WriteHostsBlock(hostsPath, cfg.Nodes); err != nil {
		return nil, err
	}

	keyPath := p.KeyPath
	if keyPath == "" {
		keyPath = cfg.SSH.KeyPath
	}
	pub, created, err := EnsureSSHKey(keyPath, "root@"+n.Name)
	if err != nil {
		return nil, err
	}
	res.KeyPath = keyPath
	res.KeyCreated = created
	res.PublicKey = strings.TrimSpace(string(pub))
	return res, nil
}

// SetHostname sets the static hostname unless it already matches.
func SetHostname(ctx context.Context, runner shell.Runner, name string) (bool, error) {
	out, err := runner.Run(ctx, shell.Cmd("hostnamectl", "--static"))
	if err == nil && strings.TrimSpace(out) == name {
		return false, nil
	}
	if _, err := runner.Run(ctx, shell.Cmd("hostnamectl", "set-hostname", name)); err != nil {
		return false, fmt.Errorf("failed to set hostname to %s: %w", name, err)
	}
	return true, nil
}

// WriteHostsBlock writes the inventory into a delimited block of the hosts
// file at path, replacing any previous block. The file is only rewritten when
// the content changes.
func WriteHostsBlock(path string, nodes []config.Node) (bool, error) {
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated := replaceHostsBlock(current, renderHostsBlock(nodes))
	if bytes.Equal(current, updated) {
		return false, nil
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, updated, mode); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func renderHostsBlock(nodes []config.Node) string {
	var b strings.Builder
	b.WriteString(hostsBlockBegin + "\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "%s\t%s\n", n.Address, n.Name)
	}
	b.WriteString(hostsBlockEnd + "\n")
	return b.String()
}

func replaceHostsBlock(content []byte, block string) []byte {
	text := string(content)
	start := strings.Index(text, hostsBlockBegin)
	end := strings.Index(text, hostsBlockEnd)
	if start >= 0 && end > start {
		end += len(hostsBlockEnd)
		if end < len(text) && text[end] == '\n' {
			end++
		}
		return []byte(text[:start] + block + text[end:])
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return []byte(text + block)
}

// EnsureSSHKey returns the public key at path+".pub", generating the pair
// first when no private key exists. Paths naming an RSA key get an RSA pair,
// everything else Ed25519.
func EnsureSSHKey(path, comment string) ([]byte, bool, error) {
	if _, err := os.Stat(path); err == nil {
		pub, err := os.ReadFile(path + ".pub")
		if err != nil {
			return nil, false, fmt.Errorf("private key %s exists but its public key is unreadable: %w", path, err)
		}
		return pub, false, nil
	}

	var (
		kp  *keygen.KeyPair
		err error
	)
	if strings.Contains(filepath.Base(path), "rsa") {
		kp, err = keygen.GenerateRSAKeyPair(rsaKeyBits)
	} else {
		kp, err = keygen.GenerateEd25519KeyPair(comment)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate SSH key: %w", err)
	}
	if err := kp.Save(path); err != nil {
		return nil, false, err
	}
	return kp.PublicKey, true, nil
}
