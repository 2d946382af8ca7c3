// Package datasources provides registries of connected backend data source
// clients keyed by cluster identity. A registry is built once at startup from
// environment provided connection settings and is then shared read-only by
// every caller that needs a cluster's client.
package datasources
