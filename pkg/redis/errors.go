package redis

import "errors"

var (
	ErrInvalidConnectionURL = errors.New("invalid redis connection url")
	ErrNotReady             = errors.New("redis not ready")
	ErrHealthcheckFailed    = errors.New("redis healthcheck failed")
)
