package motor

import (
	"fmt"
	"os"

	"github.com/pb33f/harsize/hargen"
)

// generateTestHAR generates a page HAR file for testing and returns the path and cleanup function
func generateTestHAR(opts hargen.GenerateOptions) (string, func(), error) {
	if opts.DictionaryPath == "" {
		opts.DictionaryPath = "/usr/share/dict/words"
	}

	result, err := hargen.Generate(opts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate test HAR: %w", err)
	}

	cleanup := func() {
		os.Remove(result.HARFilePath)
	}

	return result.HARFilePath, cleanup, nil
}

// generateSmallHAR generates a page with 67 entries
func generateSmallHAR() (string, func(), error) {
	return generateTestHAR(hargen.GenerateOptions{EntryCount: 67, Seed: 42})
}

// generateTinyHAR generates a page with 10 entries for quick tests
func generateTinyHAR() (string, func(), error) {
	return generateTestHAR(hargen.GenerateOptions{EntryCount: 10, Seed: 42})
}

// generateMalformedHAR generates a page with valid entries followed by malformed ones
func generateMalformedHAR(valid, malformed int) (string, func(), error) {
	return generateTestHAR(hargen.GenerateOptions{EntryCount: valid, MalformedCount: malformed, Seed: 42})
}
