package domain

import "errors"

// ErrSessionNotFound is returned when a document snapshot cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidPayload is returned when an inbound payload does not match its kind.
var ErrInvalidPayload = errors.New("invalid message payload")

// ErrGatherUnavailable is returned when gather is requested without a gather engine.
var ErrGatherUnavailable = errors.New("gather is not available")

// ErrClosed is returned by components used after Close.
var ErrClosed = errors.New("closed")
