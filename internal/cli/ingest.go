package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/timmy/imgsearch/internal/service"
	"github.com/timmy/imgsearch/internal/source/localdir"
)

var (
	ingestDir   string
	ingestLimit int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest every image under a directory",
	Long: `Walk a directory (or read its manifest.jsonl) and push each image through
the ingestion pipeline: store the blob, compute its feature vector and
upsert it into the index.`,
	Args: cobra.NoArgs,
	Run:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "Directory of images to ingest")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "Maximum number of images to ingest (0 means all)")
	_ = ingestCmd.MarkFlagRequired("dir")
}

func runIngest(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	c := initContext(ctx)
	defer c.Close()

	src := localdir.NewAdapter(ingestDir)
	stats, err := c.ingestService().IngestFromSource(ctx, src, ingestLimit)
	if err != nil {
		exitError("ingestion failed: %v", err)
	}

	printStats("Ingested", stats)
}

func printStats(verb string, stats *service.IngestStats) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	green.Printf("%s %d/%d images", verb, stats.Succeeded(), stats.TotalItems)
	fmt.Printf(" in %s\n", stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond))
	if stats.FailedItems > 0 {
		red.Printf("  %d failed (see logs for details)\n", stats.FailedItems)
	}
}
