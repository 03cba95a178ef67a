package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/audio"
)

// Session is one microphone capture, it owns the stream and the chunk buffer
type Session struct {
	lock    *sync.Mutex
	state   State
	stream  Stream
	chunks  [][]byte
	size    int64
	maxSize int64
	// dropped is set when buffered chunks are thrown away, later chunks are ignored
	dropped  bool
	tooLarge bool
	done     chan struct{}
}

// Start opens a stream on the device and starts buffering chunks.
// maxSize limits the total recorded bytes, 0 means no limit.
func Start(ctx context.Context, dev Device, maxSize int64) (*Session, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: no device", ErrMediaAccess)
	}
	st, err := dev.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrMediaAccess) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMediaAccess, err)
	}
	res := &Session{lock: &sync.Mutex{}, state: Recording, stream: st, maxSize: maxSize, done: make(chan struct{})}
	go res.collect()
	goapp.Log.Info().Msg("recording started")
	return res, nil
}

func (s *Session) collect() {
	defer close(s.done)
	for c := range s.stream.Data() {
		if len(c) == 0 {
			continue
		}
		s.add(c)
	}
	goapp.Log.Debug().Msg("exit chunk collect loop")
}

func (s *Session) add(c []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.dropped {
		return
	}
	if s.maxSize > 0 && s.size+int64(len(c)) > s.maxSize {
		goapp.Log.Warn().Int64("limit", s.maxSize).Msg("recording too large, drop chunks")
		s.tooLarge = true
		s.drop()
		return
	}
	s.chunks = append(s.chunks, c)
	s.size += int64(len(c))
}

// drop must be called under lock
func (s *Session) drop() {
	s.dropped = true
	s.chunks = nil
	s.size = 0
}

// State returns current session state
func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// PauseOrResume toggles recording and paused, does nothing in other states
func (s *Session) PauseOrResume() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch s.state {
	case Recording:
		if err := s.stream.Pause(); err != nil {
			return fmt.Errorf("can't pause: %w", err)
		}
		s.state = Paused
	case Paused:
		if err := s.stream.Resume(); err != nil {
			return fmt.Errorf("can't resume: %w", err)
		}
		s.state = Recording
	default:
		return nil
	}
	goapp.Log.Info().Str("state", s.state.String()).Msg("recording toggled")
	return nil
}

// Stop finishes the capture and returns the joined chunks.
// It waits until the device closes the data channel so the last flushed chunk is included.
func (s *Session) Stop(ctx context.Context) (*audio.Payload, error) {
	s.lock.Lock()
	if !s.state.Active() {
		s.lock.Unlock()
		return nil, ErrNotActive
	}
	s.state = Stopped
	s.lock.Unlock()

	if err := s.stream.Stop(); err != nil {
		s.discardChunks()
		return nil, fmt.Errorf("can't stop: %w", err)
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		s.discardChunks()
		return nil, fmt.Errorf("can't wait for data end: %w", ctx.Err())
	}

	s.lock.Lock()
	chunks, tooLarge := s.chunks, s.tooLarge
	s.drop()
	s.lock.Unlock()
	if tooLarge {
		return nil, fmt.Errorf("%w: limit %d", ErrTooLarge, s.maxSize)
	}
	res := audio.FromChunks(chunks)
	goapp.Log.Info().Int("chunks", len(chunks)).Int("size", res.Size()).Msg("recording stopped")
	return res, nil
}

// Discard stops the stream without building a payload
func (s *Session) Discard() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state.Active() {
		if err := s.stream.Stop(); err != nil {
			goapp.Log.Warn().Err(err).Msg("can't stop discarded stream")
		}
	}
	s.state = Stopped
	s.drop()
}

func (s *Session) discardChunks() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.drop()
}
