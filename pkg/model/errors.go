package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrTagBadRequest marks errors caused by invalid input from the caller
	ErrTagBadRequest = goerr.NewTag("bad_request")
	// ErrTagNotFound marks errors caused by a missing resource
	ErrTagNotFound = goerr.NewTag("not_found")
)

var (
	ErrInvalidSender = goerr.New("invalid sender", goerr.T(ErrTagBadRequest))
	ErrEmptyContent  = goerr.New("content is empty", goerr.T(ErrTagBadRequest))
	ErrNotFound      = goerr.New("not found", goerr.T(ErrTagNotFound))
)

// IsBadRequest reports whether any error in the chain is tagged bad_request
func IsBadRequest(err error) bool {
	return anyInChain(err, func(e error) bool { return goerr.HasTag(e, ErrTagBadRequest) })
}

// IsNotFound reports whether any error in the chain is tagged not_found
func IsNotFound(err error) bool {
	return anyInChain(err, func(e error) bool { return goerr.HasTag(e, ErrTagNotFound) })
}

func anyInChain(err error, match func(error) bool) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if match(err) {
			return true
		}
	}
	return false
}
