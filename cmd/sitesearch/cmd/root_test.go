package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const recipesIndex = `{
  "fields": ["title", "description", "body"],
  "ref": "id",
  "pipeline": ["trimmer", "stopWordFilter", "stemmer"],
  "documentStore": {"docs": {
    "/food-recipes/r1/": {"id": "/food-recipes/r1/", "title": "Grilled Salmon", "description": "A simple salmon recipe"},
    "/food-recipes/r2/": {"id": "/food-recipes/r2/", "title": "Pasta", "body": "no salmon here, salmon"}
  }}
}`

const recipesPage = `<!doctype html>
<html lang="en-GB" data-base-path="/food-recipes/">
<head><title>Recipes</title></head>
<body><input id="search-input"><div id="search-status"></div><div id="search-results"></div></body>
</html>`

// isolate points every user-level path at temporary directories.
func isolate(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if name, _, _ := strings.Cut(env, "="); strings.HasPrefix(name, "SITESEARCH_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SITESEARCH_LOG_DIR", t.TempDir())
	t.Setenv("SITESEARCH_DATA_DIR", t.TempDir())
	t.Cleanup(func() { appConfig = nil })
}

// runCLI executes the root command with args in a fresh environment and
// returns stdout and stderr.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	isolate(t)
	return execute(t, stdin, t.TempDir(), args...)
}

// runCLIInDir is runCLI with --dir set and the environment left as is.
func runCLIInDir(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	return execute(t, nil, dir, args...)
}

func execute(t *testing.T, stdin io.Reader, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(append([]string{"--dir", dir}, args...))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// writeSite lays out a site with one page and its English index.
func writeSite(t *testing.T) (root, page, index string) {
	t.Helper()
	root = t.TempDir()
	dir := filepath.Join(root, "food-recipes")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	page = filepath.Join(dir, "index.html")
	index = filepath.Join(dir, "search_index.en.json")
	require.NoError(t, os.WriteFile(page, []byte(recipesPage), 0o644))
	require.NoError(t, os.WriteFile(index, []byte(recipesIndex), 0o644))
	return root, page, index
}

// serveSite serves the recipes page and index, plus anything in extra.
func serveSite(t *testing.T, extra map[string]string) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"/food-recipes/":                     recipesPage,
		"/food-recipes/search_index.en.json": recipesIndex,
	}
	for k, v := range extra {
		files[k] = v
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".json") {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
