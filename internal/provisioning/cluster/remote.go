package cluster

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/k3s"
	"github.com/imamik/k3stage/internal/platform/ssh"
	"github.com/imamik/k3stage/internal/provisioning"
)

// RemoteFactory opens a command channel to the initializer.
type RemoteFactory func(ctx *provisioning.Context, initializer config.Node) (k3s.RemoteExecutor, error)

// PromptOutput is where the password prompt is written.
var PromptOutput io.Writer = os.Stderr

// DialInitializer builds an SSH client from the configured credentials.
// A missing key file is not an error as long as a password can be prompted.
func DialInitializer(ctx *provisioning.Context, initializer config.Node) (k3s.RemoteExecutor, error) {
	sshCfg := ctx.Config.SSH

	key, err := os.ReadFile(sshCfg.KeyPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read SSH key %s: %w", sshCfg.KeyPath, err)
	}
	if len(key) == 0 {
		ctx.Observer.Printf("[join] no SSH key at %s, using password authentication", sshCfg.KeyPath)
	}

	prompt := ssh.TerminalPrompt(sshCfg.User, initializer.Address, PromptOutput)
	if sshCfg.Password != "" {
		prompt = ssh.StaticPassword(sshCfg.Password)
	}

	clientCfg := &ssh.Config{
		Host:           initializer.Address,
		Port:           sshCfg.Port,
		User:           sshCfg.User,
		PrivateKey:     key,
		PasswordPrompt: prompt,
	}
	if ctx.Timeouts != nil {
		clientCfg.MaxRetries = ctx.Timeouts.SSHMaxAttempts
		clientCfg.RetryDelay = ctx.Timeouts.SSHRetryDelay
	}
	if sshCfg.KnownHosts != "" {
		cb, err := ssh.KnownHosts(sshCfg.KnownHosts)
		if err != nil {
			return nil, err
		}
		clientCfg.HostKeyCallback = cb
	}

	return ssh.NewClient(clientCfg)
}
