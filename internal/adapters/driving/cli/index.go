package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the embedding index",
	Long: `Build or inspect the embedding index.

The index holds one embedding per documentation chunk. It is saved after
every build so later commands can load it without calling the embedding
provider again.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the corpus and save the index",
	Long: `Loads the corpus, embeds every chunk and saves the index.

If the build fails the previously saved index is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the saved index",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexInfoCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(cmd); err != nil {
		return err
	}

	start := time.Now()
	info, err := indexService.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks (dimension %d) in %s\n",
		info.Chunks, info.Dimension, time.Since(start).Round(time.Millisecond))
	if info.Location != "" {
		cmd.Printf("Saved to %s\n", info.Location)
	}
	return nil
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(cmd); err != nil {
		return err
	}

	info := indexService.Info()
	if info.IsEmpty() {
		loaded, err := indexService.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("no index available: %w", err)
		}
		info = loaded
	}

	if indexJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal index info: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printIndexInfo(cmd, info)
	return nil
}

func printIndexInfo(cmd *cobra.Command, info domain.IndexInfo) {
	cmd.Println(headingStyle.Render("Index"))
	cmd.Printf("  Chunks: %d\n", info.Chunks)
	cmd.Printf("  Dimension: %d\n", info.Dimension)
	cmd.Printf("  Model: %s\n", info.Model)
	if !info.BuiltAt.IsZero() {
		cmd.Printf("  Built: %s\n", info.BuiltAt.Local().Format(time.DateTime))
	}
	if info.Location != "" {
		cmd.Printf("  Location: %s\n", info.Location)
	}
}
