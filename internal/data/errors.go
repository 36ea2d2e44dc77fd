package data

import "errors"

// ErrMemberIDRequired is returned when a member lookup or mutation has no id.
var ErrMemberIDRequired = errors.New("member id is required")
