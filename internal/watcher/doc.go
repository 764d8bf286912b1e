// Package watcher reports changes to a single local file, such as a search
// index artifact being rebuilt by a static site generator.
//
// fsnotify is the primary mechanism. The parent directory is watched so that
// editors and generators that replace the file by rename are still seen.
// Where fsnotify is unavailable the file is polled. Bursts of events are
// debounced into one.
//
// Usage:
//
//	w, err := watcher.New("public/search_index.en.json", watcher.Options{})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go func() { _ = w.Start(ctx) }()
//
//	for event := range w.Events() {
//	    // reload the index
//	}
package watcher
