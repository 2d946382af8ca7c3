package datasources

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"

	"github.com/vectaro/go-common/log"
	"github.com/vectaro/go-common/metrics"
)

// defaultConnectTimeout bounds a single cluster connection attempt
const defaultConnectTimeout = 10 * time.Second

// defaultGRPCPort is the qdrant grpc port used when the cluster url doesn't
// specify one
const defaultGRPCPort = 6334

// QdrantConnectFunc opens a connection to the qdrant deployment at rawurl
// using apiKey as the credential
type QdrantConnectFunc func(ctx context.Context, rawurl string, apiKey string) (*qdrant.Client, error)

// QdrantOpts are options for building the qdrant client registry
type QdrantOpts struct {
	// Logger outputs build progress. Optional.
	Logger log.Logger
	// Connect overrides how a cluster connection is opened. Used by tests.
	// If nil DialQdrant is used.
	Connect QdrantConnectFunc
	// ConnectTimeout bounds each connection attempt. If zero
	// defaultConnectTimeout (10s) is used.
	ConnectTimeout time.Duration
}

// DialQdrant opens a connection to the qdrant deployment at rawurl and
// verifies it is reachable
func DialQdrant(ctx context.Context, rawurl string, apiKey string) (*qdrant.Client, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url %s: %w", rawurl, err)
	}
	port := defaultGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant url port %s: %w", rawurl, err)
		}
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, err
	}
	// the underlying grpc connection is lazy so make sure the deployment is
	// actually reachable before handing the client out
	if _, err := client.HealthCheck(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// QdrantClients holds one connected client per known qdrant cluster
type QdrantClients struct {
	mu      sync.Mutex
	clients map[QdrantCluster]*qdrant.Client
}

// BuildQdrantClients resolves connection settings from the environment for
// every known qdrant cluster and connects to all of them concurrently. The
// build is all or nothing: if any single cluster is missing settings or fails
// to connect no registry is returned.
func BuildQdrantClients(ctx context.Context, opts QdrantOpts) (*QdrantClients, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoOpTestLogger()
	}
	connect := opts.Connect
	if connect == nil {
		connect = DialQdrant
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	q := &QdrantClients{
		clients: make(map[QdrantCluster]*qdrant.Client, len(QdrantClusterVariants)),
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, cluster := range QdrantClusterVariants {
		cluster := cluster
		g.Go(func() error {
			client, err := buildQdrantClient(gctx, logger, connect, timeout, cluster)
			if err != nil {
				return err
			}
			q.mu.Lock()
			q.clients[cluster] = client
			q.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// don't leak clients for clusters that did connect before the failure
		q.mu.Lock()
		for _, client := range q.clients {
			client.Close()
		}
		q.clients = nil
		q.mu.Unlock()
		return nil, err
	}
	return q, nil
}

func buildQdrantClient(ctx context.Context, logger log.Logger, connect QdrantConnectFunc, timeout time.Duration, cluster QdrantCluster) (*qdrant.Client, error) {
	rawurl, ok := os.LookupEnv(cluster.urlVar())
	if !ok {
		return nil, &MissingURLError{Cluster: cluster}
	}
	apiKey, ok := os.LookupEnv(cluster.apiKeyVar())
	if !ok {
		return nil, &MissingAPIKeyError{Cluster: cluster}
	}
	log.Debug(logger, "connecting to qdrant cluster", "cluster", cluster, "url", rawurl, "api_key", apiKey)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	started := time.Now()
	client, err := connect(ctx, rawurl, apiKey)
	if err != nil {
		metrics.QdrantConnectErrorsTotal.WithLabelValues(string(cluster)).Inc()
		return nil, &ConnectionError{Cluster: cluster, Err: err}
	}
	metrics.QdrantConnectDurationMilliseconds.WithLabelValues(string(cluster)).Observe(float64(time.Since(started).Milliseconds()))
	log.Info(logger, "connected to qdrant cluster", "cluster", cluster)
	return client, nil
}

// Client returns the connected client for cluster. After a successful build
// the registry contains every known cluster, so a miss means the registry and
// the cluster enumeration are out of sync. That is a programming defect and
// not a recoverable condition: silently substituting another cluster could
// write data to the wrong backend, so this panics instead of returning an
// error.
func (q *QdrantClients) Client(cluster QdrantCluster) *qdrant.Client {
	q.mu.Lock()
	client, ok := q.clients[cluster]
	q.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("no qdrant client for cluster %s", cluster))
	}
	metrics.QdrantClientLookupsTotal.WithLabelValues(string(cluster)).Inc()
	return client
}

// MainClient returns the client for the cluster specified in the config or
// the main-0 cluster if no config is provided
func (q *QdrantClients) MainClient(config *QdrantDataSourceConfig) *qdrant.Client {
	if config != nil {
		return q.Client(config.Cluster)
	}
	return q.Client(QdrantClusterMain0)
}

// ShadowWriteCluster returns the shadow write cluster if the config
// specifies one
func (q *QdrantClients) ShadowWriteCluster(config *QdrantDataSourceConfig) (QdrantCluster, bool) {
	if config == nil || config.ShadowWriteCluster == nil {
		return "", false
	}
	return *config.ShadowWriteCluster, true
}

// ShadowWriteClient returns the client for the shadow write cluster if the
// config specifies one
func (q *QdrantClients) ShadowWriteClient(config *QdrantDataSourceConfig) *qdrant.Client {
	cluster, ok := q.ShadowWriteCluster(config)
	if !ok {
		return nil
	}
	return q.Client(cluster)
}

// Close closes every client in the registry. Only call this once no caller
// holds a client from the registry anymore.
func (q *QdrantClients) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	var first error
	for _, client := range q.clients {
		if err := client.Close(); err != nil && first == nil {
			first = err
		}
	}
	q.clients = nil
	return first
}
