package hargen

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// site sections and asset names used when the system word list is missing
var fallbackWords = []string{
	"about", "account", "archive", "article", "assets", "author", "banner",
	"blog", "bundle", "cart", "catalog", "category", "checkout", "contact",
	"content", "docs", "events", "faq", "feed", "footer", "gallery", "guide",
	"header", "help", "hero", "home", "icons", "images", "index", "legal",
	"library", "login", "logo", "main", "media", "menu", "news", "offers",
	"page", "partners", "press", "pricing", "privacy", "product", "profile",
	"promo", "search", "services", "shop", "sidebar", "sitemap", "slider",
	"static", "store", "styles", "support", "team", "terms", "theme",
	"thumbnail", "upload", "vendor", "video", "widget",
}

const (
	minWordLength = 3
	maxWordLength = 12
)

// Dictionary holds words used for URL path segments and json keys.
type Dictionary struct {
	words []string
}

// LoadDictionary loads words from a dictionary file, falling back to a built-in
// list of site sections when the file does not exist.
func LoadDictionary(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Dictionary{words: fallbackWords}, nil
		}
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())

		// words end up in urls, so only short lowercase letters
		if len(word) >= minWordLength && len(word) <= maxWordLength && isPathSafe(word) {
			words = append(words, strings.ToLower(word))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words found in dictionary %s", path)
	}

	return &Dictionary{words: words}, nil
}

func isPathSafe(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// RandomWord returns a random word from the dictionary.
func (d *Dictionary) RandomWord(rng *rand.Rand) string {
	if len(d.words) == 0 {
		return "page"
	}
	return d.words[rng.Intn(len(d.words))]
}

// Slug joins n random words with hyphens, as in an asset file name.
func (d *Dictionary) Slug(n int, rng *rand.Rand) string {
	if n <= 0 {
		n = 1
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.RandomWord(rng)
	}
	return strings.Join(parts, "-")
}
