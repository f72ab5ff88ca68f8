package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTClientGetter_ToRESTConfig(t *testing.T) {
	t.Parallel()
	g := NewRESTClientGetter([]byte(testKubeconfig), "longhorn-system")

	cfg, err := g.ToRESTConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)
	assert.Equal(t, "test-token", cfg.BearerToken)

	again, err := g.ToRESTConfig()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestRESTClientGetter_Namespace(t *testing.T) {
	t.Parallel()
	g := NewRESTClientGetter([]byte(testKubeconfig), "cattle-system")

	ns, _, err := g.ToRawKubeConfigLoader().Namespace()
	require.NoError(t, err)
	assert.Equal(t, "cattle-system", ns)
}

func TestRESTClientGetter_InvalidKubeconfig(t *testing.T) {
	t.Parallel()
	g := NewRESTClientGetter([]byte("not: [valid"), "default")

	_, err := g.ToRESTConfig()
	require.Error(t, err)
	_, err = g.ToDiscoveryClient()
	require.Error(t, err)
	_, err = g.ToRESTMapper()
	require.Error(t, err)
}

func TestRESTClientGetter_Discovery(t *testing.T) {
	t.Parallel()
	g := NewRESTClientGetter([]byte(testKubeconfig), "default")

	dc, err := g.ToDiscoveryClient()
	require.NoError(t, err)
	require.NotNil(t, dc)

	mapper, err := g.ToRESTMapper()
	require.NoError(t, err)
	assert.NotNil(t, mapper)
}
