package user

import "errors"

var ErrInvalidClaims = errors.New("token claims are missing a subject")
