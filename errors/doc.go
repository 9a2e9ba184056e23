// Package errors provides the unified error type used across injector.
// Every failure the resolution engine reports is an *AppError carrying a
// machine-readable code, so callers can branch with errors.Is against the
// sentinel kinds or with HasCode.
package errors
