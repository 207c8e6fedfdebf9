// Package errors provides structured error handling with error codes for the
// admin authentication service.
//
// Every error that crosses a service boundary carries an ErrorCode. The code
// decides both the HTTP status and the error class name rendered to clients:
//
//	ErrCodeValidationFailed  → 400 ValidationError
//	ErrCodeApplication       → 400 ApplicationError
//	ErrCodeLoginNotAllowed   → 400 ApplicationError
//	ErrCodeUnauthorized      → 401 UnauthorizedError
//	ErrCodeForbidden         → 403 ForbiddenError
//	ErrCodeNotFound          → 404 NotFoundError
//	ErrCodeRateLimitExceeded → 429 RateLimitError
//	ErrCodeNotImplemented    → 501 NotImplementedError
//	ErrCodeInternal          → 500 InternalServerError
//
// Creating errors:
//
//	err := errors.Validation("identifier is required")
//	err := errors.Application("Invalid credentials")
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to load user")
//
// Inspecting errors:
//
//	if errors.IsCode(err, errors.ErrCodeLoginNotAllowed) {
//		// surface verbatim
//	}
//
// Messages of internal errors are never rendered to clients. The wrapped
// cause is only logged.
package errors
