// Package watch observes a single diagram source file for changes.
//
// Editors save in different ways: some rewrite the file in place, others
// write a temporary file and rename it over the original. The latter
// replaces the inode and silently ends an inotify watch, so callers re-arm
// the watcher after every notification. Bursts of events from a single save
// are debounced into one notification.
package watch
