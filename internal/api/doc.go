// Package api exposes the study service over JSON HTTP: onboarding,
// learning and reviewing words, due and studied lists for the content
// catalog, and the dashboard summary. Every handler expects the auth
// middleware to have put the learner's ID in the request context.
package api
