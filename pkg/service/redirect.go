package service

import "fmt"

// Redirect is returned by a view that wants the router to navigate
// elsewhere, for example to the membership page after the post limit.
type Redirect struct {
	To string
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect to %s", r.To)
}
