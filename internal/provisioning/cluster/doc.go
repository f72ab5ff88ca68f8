// Package cluster joins the node to the K3s cluster and waits for it to
// become ready.
//
// The initializer bootstraps embedded etcd with --cluster-init. Every other
// node first waits, over SSH, for the initializer's join token and then
// installs K3s as an additional server or as an agent.
package cluster
