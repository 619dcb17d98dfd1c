package urdf

import "fmt"

// MalformedDocumentError reports a document that is not usable URDF:
// broken XML, dangling link references, or a joint graph that is not a
// single tree. No partial model is returned alongside it.
type MalformedDocumentError struct {
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("urdf: malformed document: %s: %v", e.Reason, e.Err)
	}
	return "urdf: malformed document: " + e.Reason
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return &MalformedDocumentError{Reason: fmt.Sprintf(format, args...)}
}
