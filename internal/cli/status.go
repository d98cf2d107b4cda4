package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/timmy/imgsearch/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog record counts by status",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	c := initContext(ctx)
	defer c.Close()

	fmt.Printf("Index: %s (%s, dim %d)\n", c.Config.Index.Name, c.Config.Index.Provider, c.Config.Index.Dimension)
	fmt.Printf("Bucket: %s\n", c.Config.Storage.Bucket)

	if c.Catalog == nil {
		fmt.Println("Catalog disabled")
		return
	}

	indexed, err := c.Catalog.CountByStatus(ctx, domain.ImageRecordStatusIndexed)
	if err != nil {
		exitError("failed to count indexed records: %v", err)
	}
	pending, err := c.Catalog.CountByStatus(ctx, domain.ImageRecordStatusUploaded)
	if err != nil {
		exitError("failed to count uploaded records: %v", err)
	}

	color.New(color.FgGreen).Printf("  indexed:  %d\n", indexed)
	if pending > 0 {
		color.New(color.FgYellow).Printf("  uploaded: %d", pending)
		fmt.Println("  (run \"imgctl reconcile\" to index them)")
	} else {
		fmt.Printf("  uploaded: %d\n", pending)
	}
}
