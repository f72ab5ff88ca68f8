// Package k3s drives the K3s installer on the local node.
//
// A [Plan] captures how this node joins the cluster: the initializer
// bootstraps embedded etcd, other masters join as servers and workers join as
// agents. The [Installer] renders /etc/rancher/k3s/config.yaml, runs the
// upstream install script with service start suppressed and then enables the
// unit itself. [TokenFetcher] retrieves the join token from the initializer
// over SSH.
package k3s
