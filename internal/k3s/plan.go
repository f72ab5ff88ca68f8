package k3s

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/platform/shell"
)

// Well-known K3s paths.
const (
	ConfigPath            = "/etc/rancher/k3s/config.yaml"
	ServerTokenPath       = "/var/lib/rancher/k3s/server/node-token"
	ServerKubeconfigPath  = "/etc/rancher/k3s/k3s.yaml"
	AgentKubeconfigPath   = "/var/lib/rancher/k3s/agent/kubelet.kubeconfig"
	ServerService         = "k3s"
	AgentService          = "k3s-agent"
	defaultKubeconfigMode = "0644"
)

// Mode is how a node enters the cluster.
type Mode string

// Join modes.
const (
	ModeBootstrap  Mode = "bootstrap"
	ModeJoinServer Mode = "join-server"
	ModeJoinAgent  Mode = "join-agent"
)

// IsServer reports whether the mode runs the K3s server.
func (m Mode) IsServer() bool {
	return m == ModeBootstrap || m == ModeJoinServer
}

// ModeFor picks the join mode for an identity.
func ModeFor(id node.Identity) Mode {
	switch {
	case id.IsInitializer():
		return ModeBootstrap
	case id.IsMaster():
		return ModeJoinServer
	default:
		return ModeJoinAgent
	}
}

// Plan is a fully resolved installer invocation.
type Plan struct {
	Mode          Mode
	ServerURL     string
	Token         string
	Version       string
	Channel       string
	InstallScript string
}

// NewPlan builds the plan for id. The token is ignored for the bootstrap mode.
func NewPlan(id node.Identity, cfg *config.Config, token string) Plan {
	p := Plan{
		Mode:          ModeFor(id),
		Version:       cfg.K3s.Version,
		Channel:       cfg.K3s.Channel,
		InstallScript: cfg.K3s.InstallScript,
	}
	if p.Mode != ModeBootstrap {
		p.ServerURL = cfg.ServerURL()
		p.Token = token
	}
	if p.InstallScript == "" {
		p.InstallScript = config.DefaultInstallScript
	}
	return p
}

// Validate checks that a join plan carries what it needs.
func (p Plan) Validate() error {
	switch p.Mode {
	case ModeBootstrap:
		return nil
	case ModeJoinServer, ModeJoinAgent:
		var errs []error
		if p.ServerURL == "" {
			errs = append(errs, fmt.Errorf("%s requires a server URL", p.Mode))
		}
		if p.Token == "" {
			errs = append(errs, fmt.Errorf("%s requires a join token", p.Mode))
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unknown join mode %q", p.Mode)
	}
}

// Args are the arguments passed to the install script.
func (p Plan) Args() []string {
	switch p.Mode {
	case ModeBootstrap:
		return []string{"server", "--cluster-init"}
	case ModeJoinServer:
		return []string{"server", "--server", p.ServerURL}
	default:
		return []string{"agent"}
	}
}

// Env is the installer environment.
func (p Plan) Env() map[string]string {
	env := map[string]string{
		"INSTALL_K3S_SKIP_ENABLE": "true",
		"INSTALL_K3S_SKIP_START":  "true",
	}
	if p.Version != "" {
		env["INSTALL_K3S_VERSION"] = p.Version
	} else if p.Channel != "" {
		env["INSTALL_K3S_CHANNEL"] = p.Channel
	}
	switch p.Mode {
	case ModeJoinServer:
		env["K3S_TOKEN"] = p.Token
	case ModeJoinAgent:
		env["K3S_TOKEN"] = p.Token
		env["K3S_URL"] = p.ServerURL
	}
	return env
}

// Command is the shell invocation of the install script.
func (p Plan) Command() shell.Command {
	script := fmt.Sprintf("curl -sfL %s | sh -s - %s", p.InstallScript, strings.Join(p.Args(), " "))
	cmd := shell.Script(script)
	cmd.Env = p.Env()
	return cmd
}

// Service is the systemd unit K3s runs as.
func (p Plan) Service() string {
	if p.Mode.IsServer() {
		return ServerService
	}
	return AgentService
}

// CredentialsPath is the file K3s writes once the node has registered.
func (p Plan) CredentialsPath() string {
	if p.Mode.IsServer() {
		return ServerKubeconfigPath
	}
	return AgentKubeconfigPath
}
