// Package domain contains the entities of the vocabulary learning model:
// card records, learner profiles, daily activity and the value types
// (WordID, Rating, Persona, Date) they are built from. It has no
// knowledge of storage or transport.
package domain
