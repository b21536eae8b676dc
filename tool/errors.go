package tool

import "fmt"

// ErrToolNotFound is returned when a tool call references an unregistered tool.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// ErrToolAlreadyRegistered is returned when registering a tool with a duplicate name.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// ErrInvalidArguments is returned when call arguments do not decode into the handler's type.
type ErrInvalidArguments struct {
	Name string
	Err  error
}

func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("tool: %s: invalid arguments: %v", e.Name, e.Err)
}

// Unwrap returns the decoding error.
func (e *ErrInvalidArguments) Unwrap() error {
	return e.Err
}
