package commands

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pagelight/pagelight/cmd/pagelight/ui"
	"github.com/pagelight/pagelight/pkg/reader"
)

var (
	renderDPI    int
	renderFast   bool
	renderDelay  int
	renderOutDir string
	renderPages  string
)

var renderCmd = &cobra.Command{
	Use:   "render <document>",
	Short: "Rasterize document pages to PNG files",
	Long: `Rasterize every page of the document to numbered PNG files. With a
non-zero delay the pages are produced by the progressive scheduler at that
interval; with --delay=0 they are rendered back to back.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderDPI, "dpi", 0, "render resolution in DPI (72-220)")
	renderCmd.Flags().BoolVar(&renderFast, "fast", false, "use the fast raw-pixel decode path")
	renderCmd.Flags().IntVar(&renderDelay, "delay", -1, "scheduler tick interval in milliseconds")
	renderCmd.Flags().StringVarP(&renderOutDir, "output-dir", "o", ".", "directory for the PNG files")
	renderCmd.Flags().StringVarP(&renderPages, "pages", "p", "", "1-based page range, e.g. 3-7 or 5")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderDPI > 0 {
		cfg.Render.ResolutionDPI = renderDPI
	}
	if renderFast {
		cfg.Render.DecodePath = "fast"
	}
	if renderDelay >= 0 {
		cfg.Render.DelayMS = renderDelay
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Clamp()

	if err := os.MkdirAll(renderOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
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
	first, last, err := parsePageRange(renderPages, pages)
	if err != nil {
		return err
	}

	bar := newRenderBar(last - first + 1)
	fullRange := first == 0 && last == pages-1
	if cfg.Render.DelayMS > 0 && fullRange {
		err = renderProgressive(client, pages, bar)
	} else {
		err = renderDirect(client, first, last, bar)
	}
	if err != nil {
		return err
	}
	_ = bar.Finish()

	return writePages(client, first, last, args[0])
}

// parsePageRange turns a 1-based "N" or "N-M" into a 0-based inclusive
// range, defaulting to the whole document.
func parsePageRange(spec string, pages int) (first, last int, err error) {
	if spec == "" {
		return 0, pages - 1, nil
	}
	lo, hi, found := strings.Cut(spec, "-")
	if !found {
		hi = lo
	}
	first, err = strconv.Atoi(strings.TrimSpace(lo))
	if err == nil {
		last, err = strconv.Atoi(strings.TrimSpace(hi))
	}
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page range %q", spec)
	}
	first--
	last--
	if first < 0 || last >= pages || first > last {
		return 0, 0, fmt.Errorf("page range %q outside document (1-%d)", spec, pages)
	}
	return first, last, nil
}

// renderDirect walks the pages back to back on the calling goroutine.
func renderDirect(client *reader.Client, first, last int, bar *progressbar.ProgressBar) error {
	for page := first; page <= last; page++ {
		if _, err := client.Render(page); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return nil
}

// renderProgressive drives the whole document through the scheduler and its
// wall clock, polling the page store for completion.
func renderProgressive(client *reader.Client, pages int, bar *progressbar.ProgressBar) error {
	if err := client.StartAll(); err != nil {
		return err
	}
	defer client.StopAll()

	done := 0
	for done < pages {
		time.Sleep(20 * time.Millisecond)
		if n := client.Store().Len(); n != done {
			done = n
			_ = bar.Set(done)
		}
	}
	return nil
}

func writePages(client *reader.Client, first, last int, src string) error {
	base := filepath.Base(src)
	base = base[:len(base)-len(filepath.Ext(base))]

	for page := first; page <= last; page++ {
		raster := client.Store().Page(page)
		if raster == nil {
			r, err := client.Render(page)
			if err != nil {
				return err
			}
			raster = r
		}
		if raster == nil {
			continue
		}
		name := filepath.Join(renderOutDir, fmt.Sprintf("%s-%03d.png", base, page+1))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if err := png.Encode(f, raster.Image); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		if raster.Placeholder {
			ui.Warning("page %d failed to render, wrote placeholder", page+1)
		}
	}
	ui.Success("wrote %d pages to %s", last-first+1, renderOutDir)
	return nil
}

func newRenderBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}
