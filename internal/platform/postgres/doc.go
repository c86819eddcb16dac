// Package postgres provides the PostgreSQL implementation of the storage
// interfaces defined in the internal/store package. It maps learner profiles,
// card records and daily activity to rows and translates driver errors into
// store errors.
package postgres
