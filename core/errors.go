package core

import "errors"

var (
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeExpired    = errors.New("challenge has expired")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrInvalidSession      = errors.New("invalid session")
	ErrDeviceMismatch      = errors.New("device fingerprint mismatch")
	ErrTokenExpired        = errors.New("token has expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrRecordNotFound      = errors.New("minting record not found")
	ErrDispatchFailure     = errors.New("batch dispatch failed")
	ErrProviderUnavailable = errors.New("signing provider unavailable")
)
