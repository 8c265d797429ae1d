// Package errors provides classified error handling for the service.
//
// Errors carry one of three classes: Transient (temporary, retry), Invalid
// (bad input, do not retry), and Fatal (unrecoverable, stop). Classification
// drives control flow instead of error string matching; the event consumer
// uses it to decide between negative acknowledgement (redeliver) and
// termination (drop).
//
// Wrap errors with component context:
//
//	if err := repo.Apply(ev); err != nil {
//	    return errors.WrapTransient(err, "Consumer", "handle", "applying event")
//	}
//
// WrapTransient, WrapInvalid, and WrapFatal set the class; Wrap preserves
// the class already on the chain. Check classes with IsTransient, IsInvalid,
// and IsFatal, which walk wrapped chains and also classify context
// cancellation and deadline errors as transient.
//
// Sentinel errors (ErrNilTenantID, ErrEntityNotFound, ErrUnknownFilter and
// the rest) work with standard errors.Is through any wrapping:
//
//	wrapped := errors.WrapInvalid(errors.ErrNilTenantID, "Registry", "Get", "lookup")
//	errors.Is(wrapped, errors.ErrNilTenantID) // true
//	errors.IsInvalid(wrapped)                 // true
//
// All wrapping and classification is allocation-light and safe for
// concurrent use.
package errors
