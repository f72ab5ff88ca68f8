package k8s

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

const roleLabelPrefix = "node-role.kubernetes.io/"

// NodeStatus is a condensed view of one cluster node.
type NodeStatus struct {
	Name       string
	Ready      bool
	Roles      []string
	Version    string
	InternalIP string
}

// NodeStatuses lists every node in the cluster sorted by name.
func (c *Client) NodeStatuses(ctx context.Context) ([]NodeStatus, error) {
	var list corev1.NodeList
	if err := c.Ctrl.List(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	out := make([]NodeStatus, 0, len(list.Items))
	for i := range list.Items {
		n := &list.Items[i]
		status := NodeStatus{
			Name:    n.Name,
			Ready:   isNodeReady(n),
			Version: n.Status.NodeInfo.KubeletVersion,
		}
		for label := range n.Labels {
			if role, ok := strings.CutPrefix(label, roleLabelPrefix); ok && role != "" {
				status.Roles = append(status.Roles, role)
			}
		}
		sort.Strings(status.Roles)
		for _, addr := range n.Status.Addresses {
			if addr.Type == corev1.NodeInternalIP {
				status.InternalIP = addr.Address
				break
			}
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
