// Package watch keeps a set of source files patched while they are being
// edited. It monitors the files' directories, debounces rapid events into
// batches, and re-runs the patch for the files that changed.
package watch
