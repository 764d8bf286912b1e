//go:build ignore

// Package main generates a synthetic static site with a search index for
// benchmarking and manual testing.
// Usage: go run scripts/generate-test-site.go -docs 5000 -lang en -output testdata/site
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numDocs   = flag.Int("docs", 1000, "Number of documents to generate")
	lang      = flag.String("lang", "en", "Page language and index suffix")
	basePath  = flag.String("base-path", "/food-recipes/", "Site section the index covers")
	outputDir = flag.String("output", "testdata/site", "Output directory")
	malformed = flag.Int("malformed", 0, "Percentage of documents with a non-string title")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

const pageTemplate = `<!DOCTYPE html>
<html lang="%s" data-base-path="%s">
<head><title>Generated recipes</title></head>
<body>
  <input id="search-input" type="search">
  <div id="search-status"></div>
  <div id="search-results"></div>
</body>
</html>
`

// Word pools for generating recipe-like text
var (
	dishes = []string{
		"Salmon", "Pasta", "Risotto", "Curry", "Stew", "Soup", "Salad",
		"Pie", "Tart", "Bread", "Pancakes", "Chili", "Gratin", "Omelette",
	}
	adjectives = []string{
		"Grilled", "Roasted", "Spicy", "Creamy", "Quick", "Simple",
		"Summer", "Winter", "Smoked", "Baked", "Fresh", "Hearty",
	}
	ingredients = []string{
		"garlic", "basil", "lemon", "butter", "tomato", "onion", "thyme",
		"cream", "potato", "ginger", "chili", "parsley", "mushroom", "leek",
	}
	steps = []string{
		"chop", "stir", "simmer", "season", "bake", "fry", "whisk",
		"fold", "serve", "rest", "blend", "slice", "toast", "drizzle",
	}
)

type artifact struct {
	Fields        []string `json:"fields"`
	Ref           string   `json:"ref"`
	Pipeline      []string `json:"pipeline"`
	DocumentStore struct {
		Docs map[string]map[string]any `json:"docs"`
	} `json:"documentStore"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	dir := filepath.Join(*outputDir, filepath.FromSlash(strings.Trim(*basePath, "/")))
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d documents in %s...\n", *numDocs, dir)

	a := artifact{
		Fields:   []string{"title", "description", "body"},
		Ref:      "id",
		Pipeline: []string{"trimmer", "stopWordFilter", "stemmer"},
	}
	a.DocumentStore.Docs = make(map[string]map[string]any, *numDocs)

	broken := 0
	for i := 0; i < *numDocs; i++ {
		ref := fmt.Sprintf("%s%d/", *basePath, i)
		doc := map[string]any{
			"id":          ref,
			"title":       pick(rng, adjectives) + " " + pick(rng, dishes),
			"description": sentence(rng, 8),
			"body":        paragraph(rng, 5),
		}
		if rng.Intn(100) < *malformed {
			doc["title"] = i
			broken++
		}
		a.DocumentStore.Docs[ref] = doc
	}

	data, err := json.Marshal(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding index: %v\n", err)
		os.Exit(1)
	}

	indexPath := filepath.Join(dir, fmt.Sprintf("search_index.%s.json", *lang))
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing index: %v\n", err)
		os.Exit(1)
	}

	page := fmt.Sprintf(pageTemplate, *lang, *basePath)
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing page: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%d KB, %d malformed documents).\n", indexPath, len(data)/1024, broken)
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func sentence(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		if i%2 == 0 {
			parts[i] = pick(rng, steps)
		} else {
			parts[i] = pick(rng, ingredients)
		}
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func paragraph(rng *rand.Rand, sentences int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = sentence(rng, 6+rng.Intn(8))
	}
	return strings.Join(parts, " ")
}
