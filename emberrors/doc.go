// Package emberrors provides classified error handling for the Ember+
// session engine. It mirrors the error kinds named in the session
// engine's specification: transport failures, frame-level decode
// failures, request timeouts, and caller misuse, each tagged with a
// class that callers can use to decide whether to retry.
package emberrors
