package datasources

import (
	"encoding/json"
	"fmt"
)

// QdrantCluster identifies one qdrant cluster deployment. The value is the
// stable external name for the cluster which is used in serialized
// configuration and to derive the environment variable prefix holding the
// cluster's connection settings.
type QdrantCluster string

const (
	// QdrantClusterMain0 is the default qdrant cluster
	QdrantClusterMain0 QdrantCluster = "main-0"
)

// QdrantClusterVariants is the closed, ordered set of all known qdrant
// clusters. Adding a cluster requires a new constant, an entry here and an
// EnvPrefix case.
var QdrantClusterVariants = []QdrantCluster{QdrantClusterMain0}

// String returns the stable external name for the cluster
func (c QdrantCluster) String() string {
	return string(c)
}

// Valid returns true if the cluster is a member of the known cluster set
func (c QdrantCluster) Valid() bool {
	for _, v := range QdrantClusterVariants {
		if v == c {
			return true
		}
	}
	return false
}

// EnvPrefix returns the environment variable prefix used to locate the
// cluster's connection settings such as <prefix>_URL and <prefix>_API_KEY
func (c QdrantCluster) EnvPrefix() string {
	switch c {
	case QdrantClusterMain0:
		return "QDRANT_MAIN_0"
	}
	panic(fmt.Sprintf("no env prefix for qdrant cluster %s", string(c)))
}

func (c QdrantCluster) urlVar() string {
	return c.EnvPrefix() + "_URL"
}

func (c QdrantCluster) apiKeyVar() string {
	return c.EnvPrefix() + "_API_KEY"
}

// UnmarshalJSON implements json.Unmarshaler and will reject names outside the
// known cluster set so a bad configuration fails loudly instead of silently
// routing to a default cluster
func (c *QdrantCluster) UnmarshalJSON(buf []byte) error {
	var s string
	if err := json.Unmarshal(buf, &s); err != nil {
		return err
	}
	v := QdrantCluster(s)
	if !v.Valid() {
		return fmt.Errorf("unknown qdrant cluster %q", s)
	}
	*c = v
	return nil
}

// QdrantDataSourceConfig selects which qdrant cluster a data source uses and
// optionally a second cluster that writes are mirrored to
type QdrantDataSourceConfig struct {
	Cluster            QdrantCluster  `json:"cluster"`
	ShadowWriteCluster *QdrantCluster `json:"shadow_write_cluster,omitempty"`
}

// Equal returns true if both configs select the same clusters
func (c QdrantDataSourceConfig) Equal(other QdrantDataSourceConfig) bool {
	if c.Cluster != other.Cluster {
		return false
	}
	if (c.ShadowWriteCluster == nil) != (other.ShadowWriteCluster == nil) {
		return false
	}
	return c.ShadowWriteCluster == nil || *c.ShadowWriteCluster == *other.ShadowWriteCluster
}

// MissingURLError is returned from BuildQdrantClients when the environment
// variable holding a cluster's url is not set
type MissingURLError struct {
	Cluster QdrantCluster
}

func (e *MissingURLError) Error() string {
	return fmt.Sprintf("%s is not set", e.Cluster.urlVar())
}

// MissingAPIKeyError is returned from BuildQdrantClients when the environment
// variable holding a cluster's api key is not set
type MissingAPIKeyError struct {
	Cluster QdrantCluster
}

func (e *MissingAPIKeyError) Error() string {
	return fmt.Sprintf("%s is not set", e.Cluster.apiKeyVar())
}

// ConnectionError is returned from BuildQdrantClients when a connection to a
// cluster could not be established
type ConnectionError struct {
	Cluster QdrantCluster
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("error connecting to qdrant cluster %s: %v", e.Cluster, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
