package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facelab/annotator/internal/config"
	"github.com/facelab/annotator/internal/images"
	"github.com/facelab/annotator/internal/pairs"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the pairs table and its images",
	Long: `Validate the configured pairs CSV without starting the server.
In local image mode every referenced image is checked for existence and
decodability, so broken pairs surface before an annotator hits them.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("skip-images", false, "Only validate the table, not the image files")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	table, err := pairs.Load(cfg.Pairs.CSVPath)
	if err != nil {
		return fmt.Errorf("pairs table invalid: %w", err)
	}
	fmt.Printf("Pairs table OK: %d pairs in %s\n", len(table), cfg.Pairs.CSVPath)

	if mustGetBool(cmd, "skip-images") {
		return nil
	}
	if cfg.Images.UseURLs {
		fmt.Println("URL image mode: existence is checked lazily by the browser, nothing to verify")
		return nil
	}

	resolver := images.NewResolver(cfg.Images)

	// Each pair references two images; duplicates are only checked once.
	seen := make(map[string]bool)
	var identifiers []string
	for _, p := range table {
		for _, id := range []string{p.ImageA, p.ImageB} {
			if !seen[id] {
				seen[id] = true
				identifiers = append(identifiers, id)
			}
		}
	}

	bar := progressbar.NewOptions(len(identifiers),
		progressbar.OptionSetDescription("Checking images"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var broken []string
	for _, id := range identifiers {
		path, err := resolver.LocalPath(id)
		if err != nil {
			broken = append(broken, fmt.Sprintf("%s: missing", id))
		} else if _, _, err := images.Probe(path); err != nil {
			broken = append(broken, fmt.Sprintf("%s: %v", id, err))
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	if len(broken) > 0 {
		for _, b := range broken {
			fmt.Printf("  %s\n", b)
		}
		return fmt.Errorf("%d of %d images are missing or unreadable", len(broken), len(identifiers))
	}

	fmt.Printf("All %d images exist and decode\n", len(identifiers))
	return nil
}
