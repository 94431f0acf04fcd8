// Package repositories persists task metadata and the save history.
//
// Key Implementations:
//   - [MetadataRepository] : write-once task metadata on SQLite, keyed by task id
//   - [MemoryMetadataStore] : the same contract held in memory for sessions without a database
//   - [SavedFileRepository] : files written by materialization, newest first
//
// Metadata records are write-once: a second Set for an id is ignored, so the first title a task was started with
// is the one every later poll shows. Both metadata stores list records newest first by insertion sequence.
package repositories
