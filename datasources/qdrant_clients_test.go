package datasources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"

	"github.com/vectaro/go-common/log"
)

func setClusterEnv(t *testing.T, cluster QdrantCluster, url, apiKey string) {
	t.Setenv(cluster.urlVar(), url)
	t.Setenv(cluster.apiKeyVar(), apiKey)
}

// stubConnect returns a connect func handing out one fixed handle per url
func stubConnect(handles map[string]*qdrant.Client) QdrantConnectFunc {
	return func(ctx context.Context, rawurl string, apiKey string) (*qdrant.Client, error) {
		client, ok := handles[rawurl]
		if !ok {
			return nil, fmt.Errorf("unexpected connect for url %s", rawurl)
		}
		return client, nil
	}
}

func buildStubbed(t *testing.T) (*QdrantClients, *qdrant.Client) {
	setClusterEnv(t, QdrantClusterMain0, "http://x", "k")
	handle := &qdrant.Client{}
	q, err := BuildQdrantClients(context.Background(), QdrantOpts{
		Logger:  log.NewNoOpTestLogger(),
		Connect: stubConnect(map[string]*qdrant.Client{"http://x": handle}),
	})
	assert.New(t).NoError(err)
	return q, handle
}

func TestBuildQdrantClients(t *testing.T) {
	assert := assert.New(t)
	q, handle := buildStubbed(t)
	for _, cluster := range QdrantClusterVariants {
		assert.NotNil(q.Client(cluster))
	}
	assert.Same(handle, q.Client(QdrantClusterMain0))
}

func TestBuildQdrantClientsMissingURL(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(QdrantClusterMain0.urlVar(), "placeholder")
	t.Setenv(QdrantClusterMain0.apiKeyVar(), "k")
	unsetEnv(t, QdrantClusterMain0.urlVar())
	q, err := BuildQdrantClients(context.Background(), QdrantOpts{})
	assert.Nil(q)
	var missing *MissingURLError
	assert.True(errors.As(err, &missing))
	assert.Equal(QdrantClusterMain0, missing.Cluster)
	assert.EqualError(err, "QDRANT_MAIN_0_URL is not set")
}

func TestBuildQdrantClientsMissingAPIKey(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(QdrantClusterMain0.urlVar(), "http://x")
	t.Setenv(QdrantClusterMain0.apiKeyVar(), "placeholder")
	unsetEnv(t, QdrantClusterMain0.apiKeyVar())
	q, err := BuildQdrantClients(context.Background(), QdrantOpts{})
	assert.Nil(q)
	var missing *MissingAPIKeyError
	assert.True(errors.As(err, &missing))
	assert.Equal(QdrantClusterMain0, missing.Cluster)
	assert.EqualError(err, "QDRANT_MAIN_0_API_KEY is not set")
}

func TestBuildQdrantClientsConnectError(t *testing.T) {
	assert := assert.New(t)
	setClusterEnv(t, QdrantClusterMain0, "http://x", "k")
	cause := errors.New("connection refused")
	q, err := BuildQdrantClients(context.Background(), QdrantOpts{
		Connect: func(ctx context.Context, rawurl, apiKey string) (*qdrant.Client, error) {
			return nil, cause
		},
	})
	assert.Nil(q)
	var connErr *ConnectionError
	assert.True(errors.As(err, &connErr))
	assert.Equal(QdrantClusterMain0, connErr.Cluster)
	assert.True(errors.Is(err, cause))
}

func TestBuildQdrantClientsConnectTimeout(t *testing.T) {
	assert := assert.New(t)
	setClusterEnv(t, QdrantClusterMain0, "http://x", "k")
	q, err := BuildQdrantClients(context.Background(), QdrantOpts{
		ConnectTimeout: time.Millisecond,
		Connect: func(ctx context.Context, rawurl, apiKey string) (*qdrant.Client, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	assert.Nil(q)
	var connErr *ConnectionError
	assert.True(errors.As(err, &connErr))
	assert.True(errors.Is(err, context.DeadlineExceeded))
}

func TestClientPanicsOnUnregisteredCluster(t *testing.T) {
	assert := assert.New(t)
	q, _ := buildStubbed(t)
	// a cluster outside the enumeration can never be in the registry and
	// looking it up is a fatal programming error, never a silent fallback
	assert.Panics(func() {
		q.Client(QdrantCluster("dedicated-0"))
	})
}

func TestMainClient(t *testing.T) {
	assert := assert.New(t)
	q, handle := buildStubbed(t)
	assert.Same(handle, q.MainClient(nil))
	assert.Same(q.Client(QdrantClusterMain0), q.MainClient(nil))
	config := &QdrantDataSourceConfig{Cluster: QdrantClusterMain0}
	assert.Same(handle, q.MainClient(config))
}

func TestShadowWriteCluster(t *testing.T) {
	assert := assert.New(t)
	q, _ := buildStubbed(t)

	_, ok := q.ShadowWriteCluster(nil)
	assert.False(ok)

	_, ok = q.ShadowWriteCluster(&QdrantDataSourceConfig{Cluster: QdrantClusterMain0})
	assert.False(ok)

	shadow := QdrantClusterMain0
	cluster, ok := q.ShadowWriteCluster(&QdrantDataSourceConfig{Cluster: QdrantClusterMain0, ShadowWriteCluster: &shadow})
	assert.True(ok)
	assert.Equal(QdrantClusterMain0, cluster)
}

func TestShadowWriteClient(t *testing.T) {
	assert := assert.New(t)
	q, handle := buildStubbed(t)

	assert.Nil(q.ShadowWriteClient(nil))
	assert.Nil(q.ShadowWriteClient(&QdrantDataSourceConfig{Cluster: QdrantClusterMain0}))

	shadow := QdrantClusterMain0
	config := &QdrantDataSourceConfig{Cluster: QdrantClusterMain0, ShadowWriteCluster: &shadow}
	assert.Same(handle, q.ShadowWriteClient(config))

	// consistent with ShadowWriteCluster
	cluster, ok := q.ShadowWriteCluster(config)
	assert.True(ok)
	assert.Same(q.Client(cluster), q.ShadowWriteClient(config))
}

func TestConcurrentLookups(t *testing.T) {
	assert := assert.New(t)
	q, handle := buildStubbed(t)
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if q.MainClient(nil) != handle {
					t.Error("wrong handle")
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.Same(handle, q.Client(QdrantClusterMain0))
}

func unsetEnv(t *testing.T, name string) {
	// t.Setenv has already registered the restore, safe to unset for the
	// duration of the test
	if err := os.Unsetenv(name); err != nil {
		t.Fatal(err)
	}
}
