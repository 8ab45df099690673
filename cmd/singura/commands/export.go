package commands

import (
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/singura/singura/pkg/feedback"
	"github.com/singura/singura/pkg/storage"
)

var (
	exportLabelsFile string
	exportDest       string
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Publish ground-truth labels to a local directory or S3",
	RunE:  runExport,
}

func init() {
	ExportCmd.Flags().StringVar(&exportLabelsFile, "labels", "", "NDJSON label file to publish")
	ExportCmd.Flags().StringVar(&exportDest, "dest", "", "Destination: a directory or s3://bucket/key")
	ExportCmd.MarkFlagRequired("labels")
	ExportCmd.MarkFlagRequired("dest")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Re-ingest through the pipeline so ordering is canonical regardless of
	// how the input file was produced.
	ingestor := feedback.NewIngestor()
	src := storage.NewLocalStore(".")
	if _, err := feedback.ImportNDJSON(ctx, ingestor, src, exportLabelsFile); err != nil {
		return err
	}

	var dest storage.BlobStore
	key := storage.GroundTruthKey(flagOrg)
	if strings.HasPrefix(exportDest, "s3://") {
		trimmed := strings.TrimPrefix(exportDest, "s3://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("s3 destination must be s3://bucket/key")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		dest = storage.NewS3Store(cfg, parts[0])
		key = parts[1]
	} else {
		dest = storage.NewLocalStore(exportDest)
	}

	count, err := feedback.ExportNDJSON(ctx, ingestor, dest, key)
	if err != nil {
		return err
	}
	fmt.Printf("Published %d labels to %s\n", count, exportDest)
	return nil
}
