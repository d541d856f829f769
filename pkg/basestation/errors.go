package basestation

import "fmt"

// ValidationError reports a caller-supplied argument outside its domain.
// Raised before any transport I/O is issued.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// DecodeError reports characteristic bytes that do not match the expected
// encoding. Never retried: the device answered, the answer is just wrong.
type DecodeError struct {
	Characteristic string
	Msg            string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("characteristic %s: %s", e.Characteristic, e.Msg)
}

// Is allows errors.Is to match any DecodeError regardless of detail.
func (e *DecodeError) Is(target error) bool {
	_, ok := target.(*DecodeError)
	return ok
}
