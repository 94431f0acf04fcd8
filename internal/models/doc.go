// Package models defines the domain entities shared by the backend client, the reconciler and the presentation layers.
//
// The package contains three categories of types:
//
// 1. Remote task state, owned by the backend and read-only per poll:
//   - [Task] : one backend job with its normalised [Status] and progress
//   - [Snapshot] : all known tasks in backend enumeration order
//
// 2. Local context, owned by the metadata store:
//   - [TaskMetadataRecord] : title, thumbnail and source URL supplied at task start
//   - [SavedFile] : a file written to disk by materialization
//
// 3. Query results:
//   - [VideoSummary] and [SearchPage] : one page of search results with its cursor
//   - [VideoInfo] and [Format] : details for a single video URL
//
// Status changes are validated by [CanTransition]; finished and error are terminal.
package models
