package serrors

import "fmt"

// Base is a coded error shared by API surfaces and the event bus.
type Base struct {
	Code    string
	Message string
	Docs    string
}

func NewError(code, message, docs string) *Base {
	return &Base{Code: code, Message: message, Docs: docs}
}

func (e *Base) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
