package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/sitesearch/internal/loader"
	"github.com/Aman-CERP/sitesearch/internal/render"
	"github.com/Aman-CERP/sitesearch/internal/session"
	"github.com/Aman-CERP/sitesearch/internal/watcher"
)

const moreRecipesIndex = `{
  "fields": ["title", "description", "body"],
  "ref": "id",
  "pipeline": ["trimmer", "stopWordFilter", "stemmer"],
  "documentStore": {"docs": {
    "/r1": {"id": "/r1", "title": "Grilled Salmon"},
    "/r2": {"id": "/r2", "title": "Salmon Soup"},
    "/r3": {"id": "/r3", "title": "Smoked Salmon"}
  }}
}`

// lastRendering keeps the most recent results.
type lastRendering struct {
	mu sync.Mutex
	r  render.Rendering
}

func (v *lastRendering) SetStatus(render.Status) {}
func (v *lastRendering) SetResults(r render.Rendering) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.r = r
}
func (v *lastRendering) Clear()      {}
func (v *lastRendering) ClearInput() {}

func (v *lastRendering) status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.r.Status.Text
}

func newTestLive(t *testing.T, path string, view session.View) *liveSession {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ld := loader.New(loader.NewHTTPFetcher(), loader.WithLogger(logger))
	spawn := func() *session.Controller {
		return session.New(func(ctx context.Context) (*loader.Loaded, error) {
			return ld.Load(ctx, path)
		}, view,
			session.WithDebounce(time.Hour),
			session.WithLogger(logger),
			session.WithRenderer(render.NewRenderer(render.WithMessages(render.English), render.WithLogger(logger))))
	}
	live := newLiveSession(context.Background(), spawn, logger)
	t.Cleanup(func() { _ = live.Close() })
	return live
}

func runQuery(t *testing.T, live *liveSession, view *lastRendering, q, want string) {
	t.Helper()
	<-live.Loaded()
	live.Input(q)
	require.True(t, live.Flush())
	require.Eventually(t, func() bool { return view.status() == want }, 2*time.Second, 5*time.Millisecond)
}

func TestLiveSession_ReloadRepeatsLastQuery(t *testing.T) {
	// Given: a session showing results
	_, _, index := writeSite(t)
	view := &lastRendering{}
	live := newTestLive(t, index, view)
	runQuery(t, live, view, "salmon", "2 results for «salmon»")

	// When: the index changes and the session reloads
	require.NoError(t, os.WriteFile(index, []byte(moreRecipesIndex), 0o644))
	live.Reload()

	// Then: the last query runs again against the new index
	require.Eventually(t, func() bool { return view.status() == "3 results for «salmon»" }, 2*time.Second, 5*time.Millisecond)
}

func TestLiveSession_EscapeForgetsQuery(t *testing.T) {
	_, _, index := writeSite(t)
	view := &lastRendering{}
	live := newTestLive(t, index, view)
	runQuery(t, live, view, "salmon", "2 results for «salmon»")

	live.Escape()
	require.NoError(t, os.WriteFile(index, []byte(moreRecipesIndex), 0o644))
	live.Reload()
	<-live.Loaded()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, "2 results for «salmon»", view.status())
}

func TestLiveSession_FollowsWatcher(t *testing.T) {
	// Given: a session following a polling watcher on its index
	_, _, index := writeSite(t)
	view := &lastRendering{}
	live := newTestLive(t, index, view)
	runQuery(t, live, view, "salmon", "2 results for «salmon»")

	w, err := watcher.New(index, watcher.Options{
		ForcePolling:   true,
		PollInterval:   20 * time.Millisecond,
		DebounceWindow: 20 * time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	go live.Follow(ctx, w)
	time.Sleep(60 * time.Millisecond)

	// When: the index is rewritten
	require.NoError(t, os.WriteFile(index, []byte(moreRecipesIndex), 0o644))

	// Then: the new results appear without further input
	require.Eventually(t, func() bool { return view.status() == "3 results for «salmon»" }, 3*time.Second, 10*time.Millisecond)
}

func TestLiveSession_ReloadAfterCloseIsIgnored(t *testing.T) {
	_, _, index := writeSite(t)
	live := newTestLive(t, index, &lastRendering{})
	before := live.controller()

	require.NoError(t, live.Close())
	live.Reload()

	assert.Same(t, before, live.controller())
	assert.NoError(t, live.Close())
}

func TestArtifactNamePattern(t *testing.T) {
	m := artifactName.FindStringSubmatch(filepath.Base("/x/search_index.pt.json"))
	require.NotNil(t, m)
	assert.Equal(t, "pt", m[1])
	assert.Nil(t, artifactName.FindStringSubmatch("search_index.json"))
}
