package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "annotator",
	Short: "A browser-based tool for collecting face pair identity annotations",
	Long: `Face Annotator serves a browser form that shows two face images at a
time, records whether the annotator judges them to be the same identity,
and appends every finished judgment to a shared Google Sheet.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
