// Package services defines the backend interfaces consumed by the reconciler, pager and monitor, and implements them in [Client].
//
// # Interfaces
//
// Each consumer depends only on the slice of the backend it uses:
//   - [TaskSource] : snapshot of every known task (tasks.Reconciler)
//   - [TaskStarter] : submit a new task (tasks.Reconciler.Launch)
//   - [Searcher], [Suggester] : paged search and completions (search package)
//   - [InfoFetcher] : resolve a URL into title, duration and formats
//   - [Materializer] : stream a finished task's file
//   - [Prober] : liveness check (connectivity.Monitor)
//
// # Wire Format
//
// [Client] speaks the backend's JSON API:
//
//	GET  /api/tasks            {id: {id, status, progress, speed, eta, quality, error}}
//	POST /api/download         {url, quality} -> {task_id}
//	POST /api/search           {query, pageToken} -> {results, nextPageToken}
//	POST /api/suggestions      {query} -> {results}
//	POST /api/info             {url} -> {title, thumbnail, duration, formats, original_url}
//	GET  /api/get_file/{id}    file bytes
//	HEAD /?_={nanos}           liveness
//
// The task object is decoded with a streaming decoder so key order, the backend's enumeration order, is preserved.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrTransport] : the request never got a response (always recoverable)
//   - [shared.ErrAPIRequest] : non-2xx status, see [APIError]
//   - [shared.ErrInvalidURL] / [shared.ErrUnreachable] : caller-facing info failures
//   - [shared.ErrNotFinished] : get_file returned 404
//
// Requests are paced by a golang.org/x/time/rate limiter configured with [WithRateLimit].
package services
