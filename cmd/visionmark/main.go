package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visionmark/visionmark/internal/observability"
)

var logger *observability.Logger

func main() {
	// Missing .env is fine, the environment may carry everything.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "visionmark",
		Short: "Convert PDF documents and images to markdown with a vision LLM",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = observability.NewLogger(observability.LogConfig{
				Level:   viper.GetString("log_level"),
				Format:  viper.GetString("log_format"),
				Service: "visionmark",
			})
		},
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")
	root.PersistentFlags().String("model", "gemini-1.5-pro", "vision model name")
	root.PersistentFlags().String("api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")

	viper.SetEnvPrefix("VISIONMARK")
	viper.AutomaticEnv()
	bindFlag(root, "log_level", "log-level")
	bindFlag(root, "log_format", "log-format")
	bindFlag(root, "model", "model")
	bindFlag(root, "api_key", "api-key")

	root.AddCommand(newConvertCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// apiKey resolves the key from the flag, the VISIONMARK_API_KEY variable, or
// the conventional GEMINI_API_KEY variable.
func apiKey() string {
	if key := viper.GetString("api_key"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}
