package errors

// Convenience functions for common error patterns

// Input errors

func ValidationFailed(field, reason string) *LuxError {
	return New(CategoryValidation, SeverityError, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func MissingField(field string) *LuxError {
	return New(CategoryValidation, SeverityError, "required field missing").
		WithContext("field", field)
}

// Repository errors

func ProfileNotFound(name string) *LuxError {
	return New(CategoryNotFound, SeverityError, "profile not found").
		WithContext("name", name)
}

func ProfileExists(name string) *LuxError {
	return New(CategoryConflict, SeverityError, "profile already exists").
		WithContext("name", name)
}

func ScheduleNotFound(id string) *LuxError {
	return New(CategoryNotFound, SeverityError, "schedule not found").
		WithContext("id", id)
}

// Lockout errors

func RemoteLocked() *LuxError {
	return New(CategoryLocked, SeverityInfo, "local operator has control, try again later")
}

// Configuration errors

func ConfigNotFound(path string) *LuxError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(reason string, cause error) *LuxError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("reason", reason)
}

// Disk errors

func IOFailure(operation string, cause error) *LuxError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "disk operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *LuxError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
