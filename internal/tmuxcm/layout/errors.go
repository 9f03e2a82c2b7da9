package layout

import "errors"

// ErrMalformed is returned when a layout string is missing a required
// separator or token. Wrapped with fmt.Errorf alongside the offending
// fragment at each call site.
var ErrMalformed = errors.New("layout: malformed layout string")
