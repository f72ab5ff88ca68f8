// Package k8s provides cluster access for readiness checks and status
// reporting.
package k8s

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Client wraps a clientset for waits and a controller-runtime client for
// listing.
type Client struct {
	Clientset kubernetes.Interface
	Ctrl      client.Client

	// probe checks API health. It defaults to GET /readyz.
	probe func(ctx context.Context) error
}

// NewClientFromKubeconfig creates a client from a kubeconfig file.
func NewClientFromKubeconfig(path string) (*Client, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	return NewClientFromConfig(cfg)
}

// NewClientFromBytes creates a client from kubeconfig bytes.
func NewClientFromBytes(kubeconfig []byte) (*Client, error) {
	cfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig from bytes: %w", err)
	}
	return NewClientFromConfig(cfg)
}

// NewClientFromConfig creates a client from a REST config.
func NewClientFromConfig(cfg *rest.Config) (*Client, error) {
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	ctrl, err := client.New(cfg, client.Options{Scheme: Scheme()})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller-runtime client: %w", err)
	}

	c := NewClient(clientset, ctrl)
	c.probe = func(ctx context.Context) error {
		body, err := clientset.Discovery().RESTClient().Get().AbsPath("/readyz").DoRaw(ctx)
		if err != nil {
			return err
		}
		if string(body) != "ok" {
			return fmt.Errorf("readyz returned %q", string(body))
		}
		return nil
	}
	return c, nil
}

// NewClient wraps existing clients. The API probe falls back to a server
// version request.
func NewClient(clientset kubernetes.Interface, ctrl client.Client) *Client {
	return &Client{
		Clientset: clientset,
		Ctrl:      ctrl,
		probe: func(context.Context) error {
			_, err := clientset.Discovery().ServerVersion()
			return err
		},
	}
}

// Scheme returns the scheme used by the controller-runtime client.
func Scheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	return scheme
}
