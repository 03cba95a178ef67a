package transcriber

import "errors"

// ErrRequest indicates a failed transcription call: network, status code or response body
var ErrRequest = errors.New("transcription request error")

type requestError struct {
	err error
}

func newRequestError(err error) error {
	return &requestError{err: err}
}

func (e *requestError) Error() string {
	return "transcription request error: " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func (e *requestError) Is(target error) bool {
	return target == ErrRequest
}
