package datasources

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vectaro/go-common/log"
	pos "github.com/vectaro/go-common/os"
)

// RegisterQdrantFlags will setup the qdrant registry flags
func RegisterQdrantFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Duration("qdrantConnectTimeout", pos.GetenvDuration("QDRANT_CONNECT_TIMEOUT", defaultConnectTimeout), "timeout for establishing a connection to each qdrant cluster")
}

// GetQdrantClients will build the qdrant client registry for a command
func GetQdrantClients(ctx context.Context, cmd *cobra.Command, logger log.Logger) (*QdrantClients, error) {
	timeout, err := cmd.Flags().GetDuration("qdrantConnectTimeout")
	if err != nil {
		return nil, err
	}
	return BuildQdrantClients(ctx, QdrantOpts{
		Logger:         logger,
		ConnectTimeout: timeout,
	})
}
