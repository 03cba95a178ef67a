package audio

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// MIMEMP3 is the only media type accepted from a picked file
	MIMEMP3 = "audio/mpeg"
	// MIMEWebm is the container the browser recorder emits
	MIMEWebm = "audio/webm"
	// RecordedName is the display name of a finished recording
	RecordedName = "recorded_audio.webm"
)

// ErrInvalidFileType indicates a file with a not supported declared media type
var ErrInvalidFileType = errors.New("invalid file type")

// Payload is the audio staged for transcription
type Payload struct {
	Name     string
	MIMEType string
	Content  []byte
}

// FromFile validates the declared type of a picked file and wraps its content
func FromFile(name, mimeType string, content []byte) (*Payload, error) {
	if !Supported(mimeType) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidFileType, mimeType)
	}
	return &Payload{Name: name, MIMEType: MIMEMP3, Content: content}, nil
}

// FromChunks joins recorded chunks in the given order
func FromChunks(chunks [][]byte) *Payload {
	return &Payload{Name: RecordedName, MIMEType: MIMEWebm, Content: bytes.Join(chunks, nil)}
}

// Supported checks if the declared media type is exactly audio/mpeg
func Supported(mimeType string) bool {
	return mimeType == MIMEMP3
}

// Size returns content length in bytes
func (p *Payload) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Content)
}
