package config

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// requiredShellKeys must be present in a cluster.conf.
var requiredShellKeys = []string{
	"NODES",
	"K3S_CLUSTER_INIT_NODE",
	"K3S_SERVER_PORT",
	"RANCHER_HOSTNAME",
	"RANCHER_REPLICAS",
}

type scalarSetter func(c *Config, v string) error

func str(field func(c *Config) *string) scalarSetter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func integer(field func(c *Config) *int) scalarSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

var shellScalars = map[string]scalarSetter{
	"K3S_CLUSTER_INIT_NODE": str(func(c *Config) *string { return &c.Cluster.InitNode }),
	"K3S_SERVER_PORT":       integer(func(c *Config) *int { return &c.Cluster.ServerPort }),
	"RANCHER_HOSTNAME":      str(func(c *Config) *string { return &c.Cluster.RancherHostname }),
	"RANCHER_REPLICAS":      integer(func(c *Config) *int { return &c.Cluster.RancherReplicas }),

	"SSH_USER":        str(func(c *Config) *string { return &c.SSH.User }),
	"SSH_PORT":        integer(func(c *Config) *int { return &c.SSH.Port }),
	"SSH_KEY":         str(func(c *Config) *string { return &c.SSH.KeyPath }),
	"SSH_KNOWN_HOSTS": str(func(c *Config) *string { return &c.SSH.KnownHosts }),

	"NETWORK_CONNECTION":  str(func(c *Config) *string { return &c.Network.Connection }),
	"NETWORK_PREFIX":      integer(func(c *Config) *int { return &c.Network.Prefix }),
	"NETWORK_GATEWAY":     str(func(c *Config) *string { return &c.Network.Gateway }),
	"NETWORK_APPLY_DELAY": integer(func(c *Config) *int { return &c.Network.ApplyDelay }),

	"K3S_VERSION":        str(func(c *Config) *string { return &c.K3s.Version }),
	"K3S_CHANNEL":        str(func(c *Config) *string { return &c.K3s.Channel }),
	"CLUSTER_CIDR":       str(func(c *Config) *string { return &c.K3s.ClusterCIDR }),
	"K3S_INSTALL_SCRIPT": str(func(c *Config) *string { return &c.K3s.InstallScript }),

	"FLANNEL_VERSION":            str(func(c *Config) *string { return &c.Platform.Flannel.Version }),
	"LONGHORN_VERSION":           str(func(c *Config) *string { return &c.Platform.Longhorn.Version }),
	"LONGHORN_REPLICAS":          integer(func(c *Config) *int { return &c.Platform.Longhorn.Replicas }),
	"CERT_MANAGER_VERSION":       str(func(c *Config) *string { return &c.Platform.CertManager.Version }),
	"RANCHER_VERSION":            str(func(c *Config) *string { return &c.Platform.Rancher.Version }),
	"RANCHER_BOOTSTRAP_PASSWORD": str(func(c *Config) *string { return &c.Platform.Rancher.BootstrapPassword }),

	"ETCD_S3_ENDPOINT":   str(func(c *Config) *string { return &c.EtcdS3.Endpoint }),
	"ETCD_S3_BUCKET":     str(func(c *Config) *string { return &c.EtcdS3.Bucket }),
	"ETCD_S3_REGION":     str(func(c *Config) *string { return &c.EtcdS3.Region }),
	"ETCD_S3_FOLDER":     str(func(c *Config) *string { return &c.EtcdS3.Folder }),
	"ETCD_S3_ACCESS_KEY": str(func(c *Config) *string { return &c.EtcdS3.AccessKey }),
	"ETCD_S3_SECRET_KEY": str(func(c *Config) *string { return &c.EtcdS3.SecretKey }),

	"LOG_FILE":             str(func(c *Config) *string { return &c.Paths.LogFile }),
	"STATE_DIR":            str(func(c *Config) *string { return &c.Paths.StateDir }),
	"METRICS_TEXTFILE_DIR": str(func(c *Config) *string { return &c.Paths.MetricsTextfileDir }),
}

// shellValues is the evaluated assignment set of a cluster.conf.
type shellValues struct {
	scalars map[string]string
	arrays  map[string][]string
}

func (v *shellValues) has(key string) bool {
	_, s := v.scalars[key]
	_, a := v.arrays[key]
	return s || a
}

// blank reports whether a scalar is set to whitespace only. Arrays are never
// blank here; an empty inventory is a validation error.
func (v *shellValues) blank(key string) bool {
	s, ok := v.scalars[key]
	return ok && strings.TrimSpace(s) == ""
}

// list returns an array variable, or a scalar split on commas and spaces.
func (v *shellValues) list(key string) []string {
	if arr, ok := v.arrays[key]; ok {
		return arr
	}
	if s, ok := v.scalars[key]; ok {
		return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return nil
}

// LoadShell parses a shell-sourceable cluster.conf and applies defaults.
// Only variable assignments (optionally prefixed by export, declare or
// readonly) are allowed. Array entries starting with '#' are skipped.
func LoadShell(data []byte, name string) (*Config, error) {
	values, err := evalShell(data, name)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, key := range requiredShellKeys {
		switch {
		case !values.has(key):
			errs = append(errs, fmt.Errorf("missing required key %s", key))
		case values.blank(key):
			errs = append(errs, fmt.Errorf("required key %s is empty", key))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg := &Config{}
	for key, set := range shellScalars {
		v, ok := values.scalars[key]
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	for _, entry := range values.list("NODES") {
		if strings.HasPrefix(strings.TrimSpace(entry), "#") {
			continue
		}
		node, err := ParseNode(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cfg.Nodes = append(cfg.Nodes, node)
	}
	if _, ok := values.scalars["K3S_SERVER_PORT"]; ok && cfg.Cluster.ServerPort <= 0 {
		errs = append(errs, fmt.Errorf("K3S_SERVER_PORT: must be positive, got %d", cfg.Cluster.ServerPort))
	}
	if _, ok := values.scalars["RANCHER_REPLICAS"]; ok && cfg.Cluster.RancherReplicas <= 0 {
		errs = append(errs, fmt.Errorf("RANCHER_REPLICAS: must be positive, got %d", cfg.Cluster.RancherReplicas))
	}
	cfg.Network.DNS = values.list("NETWORK_DNS")
	cfg.Packages = values.list("PACKAGES")

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

func evalShell(data []byte, name string) (*shellValues, error) {
	file, err := syntax.NewParser().Parse(bytes.NewReader(data), name)
	if err != nil {
		return nil, err
	}

	values := &shellValues{
		scalars: make(map[string]string),
		arrays:  make(map[string][]string),
	}

	for _, stmt := range file.Stmts {
		var assigns []*syntax.Assign
		switch cmd := stmt.Cmd.(type) {
		case *syntax.CallExpr:
			if len(cmd.Args) > 0 {
				return nil, fmt.Errorf("line %d: only variable assignments are allowed", stmt.Pos().Line())
			}
			assigns = cmd.Assigns
		case *syntax.DeclClause:
			assigns = cmd.Args
		default:
			return nil, fmt.Errorf("line %d: only variable assignments are allowed", stmt.Pos().Line())
		}

		for _, as := range assigns {
			if err := values.assign(as); err != nil {
				return nil, fmt.Errorf("line %d: %w", as.Pos().Line(), err)
			}
		}
	}
	return values, nil
}

func (v *shellValues) assign(as *syntax.Assign) error {
	if as.Name == nil || as.Naked {
		return nil
	}
	key := as.Name.Value
	cfg := &expand.Config{Env: v.environ()}

	if as.Array != nil {
		var elems []string
		if as.Append {
			elems = v.arrays[key]
		}
		for _, elem := range as.Array.Elems {
			if elem.Value == nil {
				continue
			}
			s, err := expand.Literal(cfg, elem.Value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			elems = append(elems, s)
		}
		v.arrays[key] = elems
		delete(v.scalars, key)
		return nil
	}

	var s string
	if as.Value != nil {
		var err error
		s, err = expand.Literal(cfg, as.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if as.Append {
		s = v.scalars[key] + s
	}
	v.scalars[key] = s
	delete(v.arrays, key)
	return nil
}

// environ exposes earlier assignments so later values may reference them.
func (v *shellValues) environ() expand.Environ {
	pairs := make([]string, 0, len(v.scalars))
	for k, val := range v.scalars {
		pairs = append(pairs, k+"="+val)
	}
	return expand.ListEnviron(pairs...)
}
