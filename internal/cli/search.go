package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Find the images most similar to a local file",
	Args:  cobra.ExactArgs(1),
	Run:   runSearch,
}

func runSearch(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitError("failed to read %s: %v", args[0], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	c := initContext(ctx)
	defer c.Close()

	urls, err := c.retrievalService().SearchImage(ctx, data)
	if err != nil {
		exitError("search failed: %v", err)
	}

	if len(urls) == 0 {
		color.New(color.FgYellow).Println("No similar images found")
		return
	}

	cyan := color.New(color.FgCyan)
	for i, u := range urls {
		cyan.Printf("%2d ", i+1)
		fmt.Println(u)
	}
}
