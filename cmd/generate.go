package cmd

import (
	"fmt"

	"github.com/pb33f/harsize/hargen"
	"github.com/spf13/cobra"
)

var (
	genEntryCount int
	genOutputFile string
	genPageURL    string
	genMalformed  int
	genOmitPage   bool
	genSeed       int64
	genDictPath   string
	genMaxDepth   int
	genMaxNodes   int
	genFatMode    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic page HAR file",
	Long: `Generate a HAR (HTTP Archive) file shaped like a recorded page load: an
html document followed by stylesheets, scripts, images, fonts and json.
Useful for trying out analyze and view, or for testing malformed input.

Examples:
  harsize generate -n 100 -o page.har
  harsize generate -n 20 --malformed 3 --seed 42
  harsize generate --fat-mode -n 50 -o large.har`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := hargen.DefaultGenerateOptions
	generateCmd.Flags().IntVarP(&genEntryCount, "entries", "n", defaults.EntryCount, "Number of HAR entries to generate")
	generateCmd.Flags().StringVarP(&genOutputFile, "output", "o", "", "Output file path (default: a temp file)")
	generateCmd.Flags().StringVarP(&genPageURL, "url", "u", defaults.PageURL, "URL of the generated page")
	generateCmd.Flags().IntVar(&genMalformed, "malformed", 0, "Extra entries with missing fields or a broken shape")
	generateCmd.Flags().BoolVar(&genOmitPage, "omit-page", false, "Leave out log.pages, so the load time is unavailable")
	generateCmd.Flags().Int64VarP(&genSeed, "seed", "s", 0, "Random seed for reproducibility (0 = use current time)")
	generateCmd.Flags().StringVarP(&genDictPath, "dict", "d", defaults.DictionaryPath, "Dictionary file path")
	generateCmd.Flags().IntVar(&genMaxDepth, "max-depth", defaults.MaxJSONDepth, "Maximum JSON nesting depth")
	generateCmd.Flags().IntVar(&genMaxNodes, "max-nodes", defaults.MaxJSONNodes, "Maximum JSON nodes per level")
	generateCmd.Flags().BoolVar(&genFatMode, "fat-mode", false, "Embed base64 bodies matching each entry's size")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts := hargen.GenerateOptions{
		EntryCount:     genEntryCount,
		PageURL:        genPageURL,
		PageID:         hargen.DefaultGenerateOptions.PageID,
		MalformedCount: genMalformed,
		OmitPage:       genOmitPage,
		DictionaryPath: genDictPath,
		MaxJSONDepth:   genMaxDepth,
		MaxJSONNodes:   genMaxNodes,
		Seed:           genSeed,
		FatMode:        genFatMode,
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generating HAR file with %d entries", genEntryCount)
	if genFatMode {
		fmt.Fprintf(out, " (fat mode)")
	}
	fmt.Fprintln(out, "...")

	var result *hargen.GenerateResult
	var err error
	if genOutputFile != "" {
		result, err = hargen.GenerateToFile(genOutputFile, opts)
	} else {
		result, err = hargen.Generate(opts)
	}
	if err != nil {
		return fmt.Errorf("failed to generate HAR: %w", err)
	}

	fmt.Fprintf(out, "\n✓ Generated HAR file: %s\n", result.HARFilePath)
	fmt.Fprintf(out, "  Total entries: %d\n", result.TotalEntries)
	if result.Malformed > 0 {
		fmt.Fprintf(out, "  Malformed entries: %d\n", result.Malformed)
	}
	if result.PageID != "" {
		fmt.Fprintf(out, "  Page: %s\n", result.PageID)
	}

	return nil
}
