package mediastore

import "errors"

var ErrInvalidLink = errors.New("invalid or expired media link")
