package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagelight/pagelight/cmd/pagelight/ui"
	"github.com/pagelight/pagelight/pkg/reader"
)

var (
	textMode         string
	textStripHeaders bool
	textOutputPath   string
	textPage         int
)

var textCmd = &cobra.Command{
	Use:   "text <document>",
	Short: "Extract merged text with figure markers",
	Long: `Extract the document's text as one merged string. Structured mode groups
words into lines and blocks and can strip running headers and footers;
simple mode takes each page's plain text as-is. Figures are replaced by
inline [FIGURE n (pN)] markers in both modes.`,
	Args: cobra.ExactArgs(1),
	RunE: runText,
}

func init() {
	textCmd.Flags().StringVarP(&textMode, "mode", "m", "", "extraction mode: simple or structured")
	textCmd.Flags().BoolVar(&textStripHeaders, "strip-headers", false, "drop header/footer bands (structured mode)")
	textCmd.Flags().StringVarP(&textOutputPath, "output", "o", "", "write text to file instead of stdout")
	textCmd.Flags().IntVarP(&textPage, "page", "p", -1, "print a single zero-based page instead of the whole document")
	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if textMode != "" {
		cfg.Extraction.Mode = textMode
	}
	if cmd.Flags().Changed("strip-headers") {
		cfg.Extraction.StripHeaders = textStripHeaders
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := reader.OpenWithConfig(args[0], cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Result()
	if err != nil {
		return err
	}

	out := result.Text
	if textPage >= 0 {
		out = result.PageText(textPage)
	}

	if textOutputPath != "" {
		if err := os.WriteFile(textOutputPath, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		ui.Success("wrote %d bytes to %s", len(out), textOutputPath)
		return nil
	}

	fmt.Println(out)
	return nil
}
