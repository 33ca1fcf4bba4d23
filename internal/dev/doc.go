// Package dev provides the file watching behind "fiberctl run --watch".
//
// A Watcher reports changes to scenario files and fiberctl.json through
// fsnotify. Bursts of events are debounced and at most one change per
// ChangeType is reported per burst.
//
// # Usage
//
//	w := dev.NewWatcher(dev.WatcherConfig{
//	    Paths: dev.CollectWatchPaths(".", []string{"scenarios/todo.yaml"}),
//	})
//	w.OnChange(func(c dev.Change) {
//	    log.Printf("%s changed", c.Path)
//	})
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package dev
