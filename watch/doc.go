// Package watch keeps the vector store in step with a directory.
//
// A Watcher reports created, modified and removed files whose extension
// is supported by the ingestion loaders. A Syncer consumes those events,
// re-ingesting changed files and deleting the chunks of removed ones.
package watch
