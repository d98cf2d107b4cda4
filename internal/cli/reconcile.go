package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/timmy/imgsearch/internal/service"
)

var reconcileLimit int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Index catalog records whose upsert never completed",
	Long: `Find catalog records still marked uploaded, recompute their feature
vectors from the stored blob and upsert them into the index. Requires
catalog.enabled.`,
	Args: cobra.NoArgs,
	Run:  runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 100, "Maximum number of records to reconcile")
}

func runReconcile(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	c := initContext(ctx)
	defer c.Close()

	stats, err := c.ingestService().Reconcile(ctx, reconcileLimit)
	if errors.Is(err, service.ErrCatalogDisabled) {
		exitError("reconcile needs the catalog; set catalog.enabled=true")
	}
	if err != nil {
		exitError("reconcile failed: %v", err)
	}

	printStats("Reconciled", stats)
}
