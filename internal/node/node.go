// Package node resolves which inventory entry the local machine is.
package node

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/imamik/k3stage/internal/config"
)

// ErrNodeNotRegistered is returned when the local hostname is not in the
// inventory. Nothing may be changed on an unregistered machine.
var ErrNodeNotRegistered = errors.New("node is not registered in the inventory")

// Identity is the resolved role of the local machine.
type Identity struct {
	Node        config.Node
	Initializer config.Node
}

// Name returns the node name.
func (i Identity) Name() string { return i.Node.Name }

// Role returns the node role.
func (i Identity) Role() config.Role { return i.Node.Role }

// Address returns the node's assigned IPv4 address.
func (i Identity) Address() string { return i.Node.Address }

// IsMaster reports whether the node runs the K3s server.
func (i Identity) IsMaster() bool { return i.Node.Role == config.RoleMaster }

// IsInitializer reports whether this node bootstraps the cluster.
func (i Identity) IsInitializer() bool {
	return i.IsMaster() && i.Node.Name == i.Initializer.Name
}

// Resolve matches hostname against the inventory. The first matching entry
// wins; Validate already guarantees names are unique.
func Resolve(hostname string, cfg *config.Config) (Identity, error) {
	n, ok := cfg.NodeByName(hostname)
	if !ok {
		return Identity{}, fmt.Errorf("%w: %s", ErrNodeNotRegistered, hostname)
	}
	init, ok := cfg.InitNode()
	if !ok {
		return Identity{}, fmt.Errorf("init node %s is not a master in the inventory", cfg.Cluster.InitNode)
	}
	return Identity{Node: n, Initializer: init}, nil
}

// hostname is replaced in tests.
var hostname = os.Hostname

// LocalHostname returns the machine's name as it appears in the inventory.
// When the FQDN is not listed, the short name is tried.
func LocalHostname(cfg *config.Config) (string, error) {
	name, err := hostname()
	if err != nil {
		return "", fmt.Errorf("failed to read hostname: %w", err)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := cfg.NodeByName(name); ok {
		return name, nil
	}
	if short, _, found := strings.Cut(name, "."); found {
		return short, nil
	}
	return name, nil
}
