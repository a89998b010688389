package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/Hungichi/melodies-BE/config"
	"github.com/Hungichi/melodies-BE/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the object storage bucket",
	Long:  `Connect to the configured MinIO bucket and print object counts and sizes, optionally limited to a key prefix (audio/, covers/, profiles/).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Connecting to MinIO at %s, bucket %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStorage(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		count, total, err := store.Stats(context.Background(), minioPrefix)
		if err != nil {
			log.Fatalf("Failed to read bucket stats: %v", err)
		}

		if minioPrefix != "" {
			fmt.Printf("Prefix %q: %d objects, %d bytes\n", minioPrefix, count, total)
		} else {
			fmt.Printf("Bucket %s: %d objects, %d bytes\n", cfg.MinioBucket, count, total)
		}
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "limit stats to a key prefix")
	rootCmd.AddCommand(minioCmd)
}
