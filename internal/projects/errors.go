package projects

import "errors"

var ErrInvalidInput = errors.New("invalid input")
