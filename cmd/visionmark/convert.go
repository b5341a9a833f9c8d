package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visionmark/visionmark/pkg/parser"
)

func newConvertCmd() *cobra.Command {
	var (
		output       string
		imageMode    string
		imageDir     string
		customPrompt string
		detailed     bool
		concurrent   bool
		workers      int
		dpi          int
	)

	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a PDF or image file to markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := parser.DefaultConfig()
			cfg.ModelName = viper.GetString("model")
			cfg.APIKey = apiKey()
			cfg.ImageMode = parser.ImageMode(imageMode)
			cfg.ImageOutputDir = imageDir
			cfg.CustomPrompt = customPrompt
			cfg.DetailedExtraction = detailed
			cfg.EnableConcurrency = concurrent
			if workers > 0 {
				cfg.NumWorkers = workers
			}
			if dpi > 0 {
				cfg.Page.DPI = dpi
			}

			p, err := parser.New(cfg, parser.WithLogger(logger))
			if err != nil {
				return err
			}

			results, err := p.Convert(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var b strings.Builder
			for i, res := range results {
				if i > 0 {
					b.WriteString("\n\n")
				}
				b.WriteString(res.Markdown)
			}

			if output == "" {
				fmt.Println(b.String())
				return nil
			}
			return os.WriteFile(output, []byte(b.String()), 0o644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write markdown to file instead of stdout")
	cmd.Flags().StringVar(&imageMode, "image-mode", "", "embedded image handling (url, base64, or empty to disable)")
	cmd.Flags().StringVar(&imageDir, "image-dir", "", "directory for extracted images in url mode")
	cmd.Flags().StringVar(&customPrompt, "prompt", "", "extra instructions appended to the extraction prompt")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "enable two-phase extraction with structured page analysis")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "process pages in concurrent batches")
	cmd.Flags().IntVar(&workers, "workers", 0, "batch size for concurrent processing")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "render resolution in dots per inch")

	return cmd
}
