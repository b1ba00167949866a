package repo

import "errors"

// ErrNotFound means no live row matched, including rows owned by someone else.
var ErrNotFound = errors.New("repo: not found")
