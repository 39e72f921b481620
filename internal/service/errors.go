package service

import "errors"

var ErrOutcomeTimeout = errors.New("payment outcome not received in time")
