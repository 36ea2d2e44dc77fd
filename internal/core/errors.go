package core

import "errors"

// ErrNoChange is returned by a MemberMutator that decided nothing needs writing.
var ErrNoChange = errors.New("no change")
