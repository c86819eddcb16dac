// Package events provides the learner events published after a study action
// commits, and the interfaces used to emit and handle them.
//
// Services emit events without knowing which handlers process them. The
// server registers a logging handler; the reminder job emits reviews.due.
package events
