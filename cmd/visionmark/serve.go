package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visionmark/visionmark/internal/server"
	"github.com/visionmark/visionmark/pkg/parser"
)

// buildServeConfig assembles the converter settings for the HTTP server.
// The image mode passes through as-is; parser.New rejects unknown values.
func buildServeConfig(imageMode string, detailed, concurrent bool, workers int) parser.Config {
	cfg := parser.DefaultConfig()
	cfg.ImageMode = parser.ImageMode(imageMode)
	cfg.DetailedExtraction = detailed
	cfg.EnableConcurrency = concurrent
	if workers > 0 {
		cfg.NumWorkers = workers
	}
	return cfg
}

func newServeCmd() *cobra.Command {
	var (
		addr       string
		imageMode  string
		detailed   bool
		concurrent bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP server that converts uploaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildServeConfig(imageMode, detailed, concurrent, workers)
			cfg.ModelName = viper.GetString("model")
			cfg.APIKey = apiKey()

			p, err := parser.New(cfg, parser.WithLogger(logger))
			if err != nil {
				return err
			}

			return server.New(p, logger).ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&imageMode, "image-mode", "url", "embedded image handling (url, base64, or empty to disable)")
	cmd.Flags().BoolVar(&detailed, "detailed", true, "enable two-phase extraction with structured page analysis")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "process pages in concurrent batches")
	cmd.Flags().IntVar(&workers, "workers", 0, "batch size for concurrent processing")

	return cmd
}
