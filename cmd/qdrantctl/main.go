package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vectaro/go-common/datasources"
	"github.com/vectaro/go-common/log"
	pos "github.com/vectaro/go-common/os"
)

var rootCmd = &cobra.Command{
	Use:   "qdrantctl",
	Short: "utilities for working with the qdrant cluster registry",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "connect to every configured qdrant cluster and report its health",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.NewCommandLogger(cmd)
		defer logger.Close()
		ctx := cmd.Context()
		clients, err := datasources.GetQdrantClients(ctx, cmd, logger)
		if err != nil {
			log.Fatal(logger, "error building qdrant client registry", "err", err)
		}
		defer clients.Close()
		for _, cluster := range datasources.QdrantClusterVariants {
			if _, err := clients.Client(cluster).HealthCheck(ctx); err != nil {
				log.Error(logger, "qdrant cluster is unhealthy", "cluster", cluster, "err", err)
				pos.Exit(1)
			}
			log.Info(logger, "qdrant cluster is healthy", "cluster", cluster)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	log.RegisterFlags(rootCmd)
	datasources.RegisterQdrantFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		pos.Exit(1)
	}
}
