// Package errors provides application error types for sycobench.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for common error types
//   - Error type checking helpers
//   - HTTP status code mapping for the reporting API
//
// # Error Types
//
//   - InvalidFraming: a score was requested under an unknown framing (400).
//     This is the only condition the scoring pipeline surfaces to its caller.
//   - ModelUnavailable: the model endpoint could not be reached or rejected the call (502)
//   - MalformedResponse: the model endpoint answered with an unexpected shape (502)
//   - NotFound: Resource does not exist (404)
//   - Validation: Invalid input data (400)
//   - Internal: Unexpected error (500)
//
// # Usage
//
//	return apperrors.InvalidFraming(string(framing))
//
//	if apperrors.IsInvalidFraming(err) {
//	    // configuration bug, abort
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("load run: %w", apperrors.NotFound("run"))
package errors
