package recorder

import (
	"context"
	"errors"
)

// ErrMediaAccess indicates denied or unavailable microphone
var ErrMediaAccess = errors.New("media access error")

// ErrNotActive is returned when stopping a session that is not recording or paused
var ErrNotActive = errors.New("session not active")

// ErrTooLarge is returned by Stop when the recorded audio exceeded the session limit
var ErrTooLarge = errors.New("recording too large")

// Device provides live audio capture
type Device interface {
	// Open requests an audio input stream, fails with ErrMediaAccess if access is not granted
	Open(ctx context.Context) (Stream, error)
}

// Stream is an opened capture.
// Data delivers chunks in capture order. After Stop the device flushes
// what it still holds and closes the Data channel.
type Stream interface {
	Data() <-chan []byte
	Pause() error
	Resume() error
	Stop() error
}
