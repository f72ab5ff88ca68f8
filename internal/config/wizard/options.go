package wizard

import "github.com/charmbracelet/huh"

// Release channels offered for the K3s installer.
const (
	ChannelStable = "stable"
	ChannelLatest = "latest"
)

// ChannelOptions contains the K3s release channels.
var ChannelOptions = []huh.Option[string]{
	huh.NewOption("stable (Recommended)", ChannelStable),
	huh.NewOption("latest", ChannelLatest),
}

// PrefixOptions contains common network prefix lengths.
var PrefixOptions = []huh.Option[int]{
	huh.NewOption("/24 (255.255.255.0)", 24),
	huh.NewOption("/23 (255.255.254.0)", 23),
	huh.NewOption("/22 (255.255.252.0)", 22),
	huh.NewOption("/16 (255.255.0.0)", 16),
}

// RancherReplicaOptions contains valid Rancher replica counts.
var RancherReplicaOptions = []huh.Option[int]{
	huh.NewOption("1 (Single node)", 1),
	huh.NewOption("3 (Recommended for HA)", 3),
}

// InitNodeOptions builds the initializer choices from the master names.
func InitNodeOptions(masters []string) []huh.Option[string] {
	opts := make([]huh.Option[string], len(masters))
	for i, name := range masters {
		opts[i] = huh.NewOption(name, name)
	}
	return opts
}
