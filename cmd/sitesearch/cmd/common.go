package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/sitesearch/internal/artifact"
	"github.com/Aman-CERP/sitesearch/internal/config"
	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/loader"
	"github.com/Aman-CERP/sitesearch/internal/render"
	"github.com/Aman-CERP/sitesearch/internal/resolve"
	"github.com/Aman-CERP/sitesearch/internal/search"
	"github.com/Aman-CERP/sitesearch/internal/store"
	"github.com/Aman-CERP/sitesearch/pkg/version"
)

// artifactName matches the file name the site generator writes.
var artifactName = regexp.MustCompile(`^search_index\.([^.]+)\.json$`)

// targetFlags select the artifact a command works on.
type targetFlags struct {
	page     string
	index    string
	lang     string
	basePath string
	root     string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.page, "page", "", "Page URL or HTML file to resolve the index from")
	cmd.Flags().StringVar(&f.index, "index", "", "Index artifact URL or file, bypassing page resolution")
	cmd.Flags().StringVar(&f.lang, "lang", "", "Override the page's lang attribute")
	cmd.Flags().StringVar(&f.basePath, "base-path", "", "Override the page's base path")
	cmd.Flags().StringVar(&f.root, "root", "", "Site root for a local --page (default: the page's directory)")
	cmd.MarkFlagsMutuallyExclusive("page", "index")
}

// target is a resolved artifact together with how it was found.
type target struct {
	// Location is the artifact URL or file path handed to the loader.
	Location string
	Language string

	// Resolved and Page are nil when --index was given.
	Resolved *resolve.Location
	Page     *resolve.Page
}

// local reports whether the artifact is a file on this machine.
func (t target) local() bool {
	return !isRemote(t.Location)
}

// resolveTarget turns the target flags into an artifact location.
func resolveTarget(ctx context.Context, cfg *config.Config, f targetFlags) (target, error) {
	switch {
	case f.index != "":
		return target{Location: f.index, Language: indexLanguage(cfg, f)}, nil
	case f.page != "":
		return resolvePage(ctx, cfg, f)
	default:
		return target{}, sserrors.ValidationError("no search index given", nil).
			WithSuggestion("pass --page with a page of the site, or --index with the artifact itself")
	}
}

// indexLanguage picks the language for a bare --index: the flag, then the
// artifact file name, then the configured default.
func indexLanguage(cfg *config.Config, f targetFlags) string {
	if f.lang != "" {
		return resolve.LanguageCode(f.lang, cfg.Site.DefaultLanguage)
	}
	if m := artifactName.FindStringSubmatch(filepath.Base(f.index)); m != nil {
		return m[1]
	}
	return cfg.Site.DefaultLanguage
}

func resolvePage(ctx context.Context, cfg *config.Config, f targetFlags) (target, error) {
	var (
		page *resolve.Page
		err  error
		root string
	)

	if isRemote(f.page) {
		resp, ferr := newFetcher(cfg).Fetch(ctx, f.page)
		if ferr != nil {
			return target{}, ferr
		}
		page, err = resolve.ParsePage(bytes.NewReader(resp.Body), resp.ContentType, resp.URL)
	} else {
		page, root, err = readLocalPage(f.page, f.root)
	}
	if err != nil {
		return target{}, err
	}

	if f.lang != "" {
		page.Lang = f.lang
	}
	if f.basePath != "" {
		page.BasePathOverride = f.basePath
	}
	if !page.HasSearchInput {
		slog.Debug("page_without_search_input", slog.String("page", f.page))
	}

	loc := resolve.NewResolver(cfg.Site.DefaultLanguage, strategyFor(cfg)).Resolve(page)
	t := target{Language: loc.Language, Resolved: &loc, Page: page}

	if root == "" {
		t.Location = loc.ArtifactURL(page.URL)
	} else {
		ref, perr := url.Parse(loc.ArtifactURL(page.URL))
		if perr != nil {
			return target{}, sserrors.New(sserrors.ErrCodeInvalidPath, "invalid artifact path "+loc.ArtifactPath(), perr)
		}
		t.Location = filepath.Join(root, filepath.FromSlash(ref.Path))
	}

	slog.Debug("artifact_resolved",
		slog.String("page", f.page),
		slog.String("language", loc.Language),
		slog.String("base_path", loc.BasePath),
		slog.String("artifact", t.Location))
	return t, nil
}

// readLocalPage reads an HTML file and addresses it relative to the site
// root, so that base paths resolve the way they would on the served site.
func readLocalPage(path, root string) (*resolve.Page, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", sserrors.New(sserrors.ErrCodeInvalidPath, "invalid page path "+path, err)
	}
	if root == "" {
		root = filepath.Dir(abs)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, "", sserrors.New(sserrors.ErrCodeInvalidPath, "invalid site root "+root, err)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, "", sserrors.ValidationError("page "+path+" is outside the site root "+root, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", sserrors.New(sserrors.ErrCodeFileNotFound, "page not found: "+path, err)
		}
		return nil, "", sserrors.New(sserrors.ErrCodePageUnreadable, "failed to read page "+path, err)
	}

	pageURL := &url.URL{Path: "/" + filepath.ToSlash(rel)}
	page, err := resolve.ParsePage(bytes.NewReader(data), "text/html", pageURL)
	if err != nil {
		return nil, "", err
	}
	return page, root, nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func strategyFor(cfg *config.Config) resolve.BasePathStrategy {
	return resolve.NewMarkerStrategy(cfg.Site.BasePathMarkers...)
}

func newFetcher(cfg *config.Config) *loader.HTTPFetcher {
	ua := cfg.Fetch.UserAgent
	if ua == "" || ua == version.Name {
		ua = version.UserAgent()
	}
	return loader.NewHTTPFetcher(
		loader.WithTimeout(cfg.FetchTimeout()),
		loader.WithMaxBytes(cfg.Fetch.MaxBytes),
		loader.WithUserAgent(ua),
	)
}

func newLoader(cfg *config.Config) *loader.Loader {
	return loader.New(newFetcher(cfg), loader.WithLogger(slog.Default()))
}

// newRenderer picks the message catalog from the configured locale, falling
// back to the artifact language.
func newRenderer(cfg *config.Config, lang string, limit int) *render.Renderer {
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	return render.NewRenderer(
		render.WithMessages(render.MessagesFor(cfg.UI.Locale, lang)),
		render.WithMaxResults(limit),
		render.WithSnippetLength(cfg.Search.SnippetLength),
		render.WithLogger(slog.Default()),
	)
}

func engineOptions(cfg *config.Config) []search.EngineOption {
	b := cfg.Search.Boosts
	return []search.EngineOption{
		search.WithBoosts([]store.FieldBoost{
			{Field: artifact.FieldTitle, Boost: b.Title},
			{Field: artifact.FieldDescription, Boost: b.Description},
			{Field: artifact.FieldBody, Boost: b.Body},
		}),
		search.WithExpand(cfg.ExpandEnabled()),
		search.WithCacheSize(cfg.Search.CacheSize),
		search.WithLogger(slog.Default()),
	}
}
