package wizard

import (
	"context"
	"net"
	"net/netip"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/k3stage/internal/config"
)

// hostnameRegex validates a dotted DNS name.
var hostnameRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// runInventoryGroup prompts for the node list.
func runInventoryGroup(ctx context.Context, result *WizardResult) error {
	var inventory string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Nodes").
				Description("One node per line as name:ip:role (role is master or worker)").
				Placeholder("master-1:10.0.0.11:master\nworker-1:10.0.0.21:worker").
				Lines(8).
				Value(&inventory).
				Validate(validateInventory),
		).Title("Inventory"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	result.Nodes, err = parseInventory(inventory)
	return err
}

// runClusterGroup prompts for the initializer and the Rancher endpoint.
func runClusterGroup(ctx context.Context, result *WizardResult) error {
	masters := masterNames(result.Nodes)
	result.InitNode = masters[0]
	result.RancherReplicas = config.DefaultRancherReplicas
	if len(result.Nodes) < config.DefaultRancherReplicas {
		result.RancherReplicas = 1
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Initializer").
				Description("The master that bootstraps embedded etcd and installs the platform").
				Options(InitNodeOptions(masters)...).
				Value(&result.InitNode),
			huh.NewInput().
				Title("Rancher Hostname").
				Description("DNS name the Rancher UI is served on").
				Placeholder("rancher.example.com").
				Value(&result.RancherHostname).
				Validate(validateHostname),
			huh.NewSelect[int]().
				Title("Rancher Replicas").
				Options(RancherReplicaOptions...).
				Value(&result.RancherReplicas),
		).Title("Cluster"),
	).RunWithContext(ctx)
}

// runAccessGroup prompts for SSH access to the initializer.
func runAccessGroup(ctx context.Context, result *WizardResult) error {
	result.SSHUser = config.DefaultSSHUser
	result.SSHKeyPath = "/root/.ssh/id_rsa"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH User").
				Description("Account joining nodes use to read the token on the initializer").
				Value(&result.SSHUser),
			huh.NewInput().
				Title("SSH Key").
				Description("Private key path; `k3stage prepare` creates it when missing").
				Value(&result.SSHKeyPath),
		).Title("SSH Access"),
	).RunWithContext(ctx)
}

// runNetworkGroup prompts for the static address settings.
func runNetworkGroup(ctx context.Context, result *WizardResult) error {
	result.Connection = config.DefaultConnection
	result.Prefix = config.DefaultPrefixLength
	var dns string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connection").
				Description("NetworkManager connection that carries the node address").
				Value(&result.Connection),
			huh.NewSelect[int]().
				Title("Prefix Length").
				Options(PrefixOptions...).
				Value(&result.Prefix),
			huh.NewInput().
				Title("Gateway").
				Placeholder("10.0.0.1").
				Value(&result.Gateway).
				Validate(validateIPv4),
			huh.NewInput().
				Title("DNS Servers").
				Description("Comma-separated").
				Placeholder("1.1.1.1, 9.9.9.9").
				Value(&dns).
				Validate(validateIPv4List),
		).Title("Network"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	result.DNS = splitList(dns)
	return nil
}

// runK3sGroup prompts for installer and cluster network options.
func runK3sGroup(ctx context.Context, opts *AdvancedOptions) error {
	opts.K3sChannel = ChannelStable
	opts.ClusterCIDR = config.DefaultClusterCIDR
	packages := strings.Join(config.DefaultPackages, ", ")

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("K3s Channel").
				Options(ChannelOptions...).
				Value(&opts.K3sChannel),
			huh.NewInput().
				Title("Cluster CIDR").
				Description("Pod network handed to flannel").
				Value(&opts.ClusterCIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("Packages").
				Description("Comma-separated packages installed before K3s").
				Value(&packages),
		).Title("K3s"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	opts.Packages = splitList(packages)
	return nil
}

// runSnapshotGroup prompts for optional etcd snapshot upload.
func runSnapshotGroup(ctx context.Context, opts *AdvancedOptions) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Upload etcd snapshots to S3?").
				Description("Credentials are read from ETCD_S3_ACCESS_KEY and ETCD_S3_SECRET_KEY").
				Value(&opts.EtcdS3),
		).Title("Etcd Snapshots"),
	).RunWithContext(ctx)
	if err != nil || !opts.EtcdS3 {
		return err
	}

	opts.EtcdS3Region = "us-east-1"
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Placeholder("s3.example.com").
				Value(&opts.EtcdS3Endpoint),
			huh.NewInput().
				Title("Bucket").
				Value(&opts.EtcdS3Bucket).
				Validate(huh.ValidateNotEmpty()),
			huh.NewInput().
				Title("Region").
				Value(&opts.EtcdS3Region),
		).Title("Etcd Snapshots"),
	).RunWithContext(ctx)
}

// parseInventory parses one "name:ip:role" entry per line. Blank lines and
// lines starting with # are ignored.
func parseInventory(input string) ([]config.Node, error) {
	var nodes []config.Node
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, err := config.ParseNode(line)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return nil, errInventoryRequired
	}
	return nodes, nil
}

// validateInventory checks the inventory text the way config.Validate
// would, so mistakes surface in the form.
func validateInventory(s string) error {
	nodes, err := parseInventory(s)
	if err != nil {
		return err
	}
	cfg := &config.Config{Nodes: nodes}
	if len(cfg.Masters()) == 0 {
		return errNoMaster
	}
	cfg.Cluster.InitNode = cfg.Masters()[0].Name
	cfg.Cluster.RancherHostname = "placeholder.invalid"
	cfg.ApplyDefaults()
	return cfg.Validate()
}

// validateHostname validates the Rancher hostname.
func validateHostname(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errHostnameRequired
	}
	if !hostnameRegex.MatchString(s) {
		return errHostnameInvalid
	}
	return nil
}

// validateIPv4 validates a single IPv4 address.
func validateIPv4(s string) error {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || !addr.Is4() {
		return errIPv4Invalid
	}
	return nil
}

// validateIPv4List validates a comma-separated list of IPv4 addresses. An
// empty list is allowed.
func validateIPv4List(s string) error {
	for _, item := range splitList(s) {
		if err := validateIPv4(item); err != nil {
			return err
		}
	}
	return nil
}

// validateCIDR validates a CIDR notation string using net.ParseCIDR.
func validateCIDR(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errCIDRRequired
	}
	if _, _, err := net.ParseCIDR(s); err != nil {
		return errCIDRInvalid
	}
	return nil
}

// splitList splits comma-separated input, dropping empty items.
func splitList(input string) []string {
	var out []string
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
