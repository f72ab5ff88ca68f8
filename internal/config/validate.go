package config

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
)

// nodeNameRegex matches a valid hostname label.
var nodeNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Validate checks the configuration and returns every violation found,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateNodes()...)
	errs = append(errs, c.validateCluster()...)
	errs = append(errs, c.validateNetwork()...)

	if c.EtcdS3.Enabled() && c.EtcdS3.Endpoint == "" {
		errs = append(errs, fmt.Errorf("etcd_s3.endpoint is required when a bucket is set"))
	}

	return errors.Join(errs...)
}

func (c *Config) validateNodes() []error {
	if len(c.Nodes) == 0 {
		return []error{fmt.Errorf("inventory must contain at least one node")}
	}

	var errs []error
	seen := make(map[string]int, len(c.Nodes))
	for i, n := range c.Nodes {
		if !nodeNameRegex.MatchString(n.Name) {
			errs = append(errs, fmt.Errorf("node %d: invalid name %q", i+1, n.Name))
		}
		if addr, err := netip.ParseAddr(n.Address); err != nil || !addr.Is4() {
			errs = append(errs, fmt.Errorf("node %s: invalid IPv4 address %q", n.Name, n.Address))
		}
		if !n.Role.Valid() {
			errs = append(errs, fmt.Errorf("node %s: invalid role %q (must be master or worker)", n.Name, n.Role))
		}
		if first, dup := seen[n.Name]; dup {
			errs = append(errs, fmt.Errorf("node %s: duplicate name (entries %d and %d)", n.Name, first, i+1))
			continue
		}
		seen[n.Name] = i + 1
	}
	return errs
}

func (c *Config) validateCluster() []error {
	var errs []error

	if c.Cluster.InitNode == "" {
		errs = append(errs, fmt.Errorf("init node is required"))
	} else {
		matches := 0
		for _, n := range c.Nodes {
			if n.Name != c.Cluster.InitNode {
				continue
			}
			matches++
			if n.Role != RoleMaster {
				errs = append(errs, fmt.Errorf("init node %s must have role master, has %s", n.Name, n.Role))
			}
		}
		if matches == 0 {
			errs = append(errs, fmt.Errorf("init node %s is not in the inventory", c.Cluster.InitNode))
		}
	}

	if c.Cluster.ServerPort < 1 || c.Cluster.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Cluster.ServerPort))
	}
	if c.Cluster.RancherHostname == "" {
		errs = append(errs, fmt.Errorf("rancher hostname is required"))
	}
	if c.Cluster.RancherReplicas < 1 {
		errs = append(errs, fmt.Errorf("rancher replicas must be at least 1, got %d", c.Cluster.RancherReplicas))
	}
	return errs
}

func (c *Config) validateNetwork() []error {
	var errs []error
	if c.Network.Prefix < 1 || c.Network.Prefix > 32 {
		errs = append(errs, fmt.Errorf("network prefix %d out of range", c.Network.Prefix))
	}
	if c.Network.Gateway != "" {
		if addr, err := netip.ParseAddr(c.Network.Gateway); err != nil || !addr.Is4() {
			errs = append(errs, fmt.Errorf("invalid gateway %q", c.Network.Gateway))
		}
	}
	for _, dns := range c.Network.DNS {
		if _, err := netip.ParseAddr(dns); err != nil {
			errs = append(errs, fmt.Errorf("invalid DNS server %q", dns))
		}
	}
	if _, err := netip.ParsePrefix(c.K3s.ClusterCIDR); err != nil {
		errs = append(errs, fmt.Errorf("invalid cluster CIDR %q", c.K3s.ClusterCIDR))
	}
	return errs
}
