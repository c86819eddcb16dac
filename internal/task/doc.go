// Package task runs background work on a bounded in-memory queue drained by
// a fixed pool of workers. The server uses it to deliver learner events off
// the request path, so a slow event handler never delays a review response.
package task
