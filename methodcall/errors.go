package methodcall

import "fmt"

// EncodingError is returned for any failure in the method-call argument
// encoder: a missing reference, a malformed tuple pack, or a type mismatch
// with the declared method signature.
type EncodingError struct {
	Method  string
	Message string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("AbiEncoding: %s (%s)", e.Message, e.Method)
}

func encErr(method Method, format string, args ...interface{}) error {
	return &EncodingError{Method: method.Name, Message: fmt.Sprintf(format, args...)}
}
