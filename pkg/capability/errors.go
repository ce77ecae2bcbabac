package capability

import "fmt"

// DescriptorError reports an invalid capability declaration. It is raised
// at registration time and should abort startup.
type DescriptorError struct {
	Name   string
	Reason string
}

func (e *DescriptorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid capability descriptor: %s", e.Reason)
	}
	return fmt.Sprintf("invalid capability descriptor %q: %s", e.Name, e.Reason)
}

// DuplicateError reports a second registration under an existing name.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("capability %q is already registered", e.Name)
}

// NotFoundError reports a lookup for a capability that was never registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown capability %q", e.Name)
}
