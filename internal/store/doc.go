// Package store defines the persistence contract for learner profiles.
// The scheduler core never calls it; the study service loads a profile,
// applies one event and writes the touched rows back through it, inside a
// transaction started with RunInTransaction.
package store
