// Package tasks reconciles backend task state with local metadata and guards the one-shot delivery of finished files.
//
// # Reconciliation
//
// [Reconciler.Poll] fetches a snapshot, keeps terminal states terminal ([Stabilize]) and merges it with cached
// metadata into a view ([Merge]). The view is newest first, which is the reverse of the backend's enumeration order,
// and is recomputed from scratch on every poll so vanished ids never linger. [Merge] and [Stabilize] are pure, so
// tests can call them with synthetic snapshots.
//
// Each poll takes a sequence number before it fetches; a poll that completes after a newer one was applied is
// discarded.
//
// # Materialization Guard
//
// [Reconciler.Materialize] checks and claims the task in a single critical section and only then opens the file,
// so two rapid calls can never both deliver. The guard lives for the session and is never persisted.
// [Reconciler.Save] writes the file under a slugified title through a temp file and rename.
// [Reconciler.SaveAll] runs several saves on a bounded worker pool paced by a rate limiter.
//
// # Scheduling
//
// [Poller] runs Poll on a [schedule.Loop]; [Poller.Kick] polls immediately after a launch.
//
// # Progress Reporting
//
// Events are published on [Reconciler.Updates] with non-blocking sends, so an unread channel never stalls a poll.
package tasks
