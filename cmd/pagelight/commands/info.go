package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagelight/pagelight/cmd/pagelight/ui"
	"github.com/pagelight/pagelight/pkg/reader"
)

var (
	infoFigures bool
	infoSpans   bool
)

var infoCmd = &cobra.Command{
	Use:   "info <document>",
	Short: "Show page, span and figure statistics for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoFigures, "figures", false, "list each detected figure with its page")
	infoCmd.Flags().BoolVar(&infoSpans, "spans", false, "list each page's byte range in the merged text")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := reader.OpenWithConfig(args[0], cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer client.Close()

	pages, err := client.PageCount()
	if err != nil {
		return err
	}
	result, err := client.Result()
	if err != nil {
		return err
	}

	ui.Header("Document")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "path:\t%s\n", args[0])
	fmt.Fprintf(w, "pages:\t%d\n", pages)
	fmt.Fprintf(w, "mode:\t%s\n", result.Mode)
	fmt.Fprintf(w, "text bytes:\t%d\n", len(result.Text))
	fmt.Fprintf(w, "figures:\t%d\n", len(result.Figures))
	w.Flush()

	if infoSpans {
		sw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(sw, "\nPAGE\tSTART\tEND\tBYTES")
		for i, span := range result.Spans {
			fmt.Fprintf(sw, "%d\t%d\t%d\t%d\n", i+1, span.Start, span.End, span.End-span.Start)
		}
		sw.Flush()
	}

	if infoFigures {
		ids := make([]int, 0, len(result.Figures))
		for id := range result.Figures {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		fw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(fw, "\nFIGURE\tPAGE\tREF")
		for _, id := range ids {
			fig := result.Figures[id]
			fmt.Fprintf(fw, "%d\t%d\t%s\n", fig.ID, fig.Page+1, fig.Ref.Name)
		}
		fw.Flush()
	}
	return nil
}
