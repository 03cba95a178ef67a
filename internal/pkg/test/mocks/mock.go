package mocks

import (
	"context"

	"github.com/airenas/scriba/internal/pkg/audio"
	"github.com/airenas/scriba/internal/pkg/recorder"
	"github.com/stretchr/testify/mock"
)

// Transcriber is transcription client mock
type Transcriber struct{ mock.Mock }

func (m *Transcriber) Transcribe(ctx context.Context, p *audio.Payload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

// Device is capture device mock
type Device struct{ mock.Mock }

func (m *Device) Open(ctx context.Context) (recorder.Stream, error) {
	args := m.Called(ctx)
	return to[recorder.Stream](args.Get(0)), args.Error(1)
}

// Stream is capture stream mock, chunks are fed through Ch
type Stream struct {
	mock.Mock
	Ch chan []byte
}

// NewStream creates stream mock with a buffered data channel
func NewStream() *Stream {
	return &Stream{Ch: make(chan []byte, 100)}
}

// OnStopCloses makes Stop succeed and close the data channel
func (m *Stream) OnStopCloses() *mock.Call {
	return m.On("Stop").Return(nil).Run(func(args mock.Arguments) { close(m.Ch) }).Once()
}

func (m *Stream) Data() <-chan []byte {
	return m.Ch
}

func (m *Stream) Pause() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Stream) Resume() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Stream) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
