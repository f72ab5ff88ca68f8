package helm

import (
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// RESTClientGetter implements genericclioptions.RESTClientGetter over
// kubeconfig bytes, scoped to one namespace.
type RESTClientGetter struct {
	kubeconfig []byte
	namespace  string

	once       sync.Once
	restConfig *rest.Config
	discovery  discovery.CachedDiscoveryInterface
	err        error
}

// NewRESTClientGetter creates a getter from kubeconfig bytes.
func NewRESTClientGetter(kubeconfig []byte, namespace string) *RESTClientGetter {
	return &RESTClientGetter{
		kubeconfig: kubeconfig,
		namespace:  namespace,
	}
}

func (g *RESTClientGetter) init() {
	g.once.Do(func() {
		g.restConfig, g.err = g.ToRawKubeConfigLoader().ClientConfig()
		if g.err != nil {
			return
		}
		var dc *discovery.DiscoveryClient
		dc, g.err = discovery.NewDiscoveryClientForConfig(g.restConfig)
		if g.err == nil {
			g.discovery = memory.NewMemCacheClient(dc)
		}
	})
}

// ToRESTConfig implements genericclioptions.RESTClientGetter.
func (g *RESTClientGetter) ToRESTConfig() (*rest.Config, error) {
	g.init()
	return g.restConfig, g.err
}

// ToDiscoveryClient returns a cached discovery client shared by all callers.
func (g *RESTClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	g.init()
	return g.discovery, g.err
}

// ToRESTMapper implements genericclioptions.RESTClientGetter.
func (g *RESTClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	dc, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(dc), nil
}

// ToRawKubeConfigLoader returns a loader whose namespace is the getter's.
func (g *RESTClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	raw, err := clientcmd.Load(g.kubeconfig)
	if err != nil {
		return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
	}
	overrides := &clientcmd.ConfigOverrides{}
	overrides.Context.Namespace = g.namespace
	return clientcmd.NewDefaultClientConfig(*raw, overrides)
}
