package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/recorder"
	"github.com/gorilla/websocket"
)

// WsConn is the part of a websocket connection the device needs
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

const (
	cmdStart  = "start"
	cmdPause  = "pause"
	cmdResume = "resume"
	cmdStop   = "stop"

	evStarted = "started"
	evStopped = "stopped"
	evError   = "error"
)

type command struct {
	Cmd string `json:"cmd"`
}

type event struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}

// WSDevice is a browser MediaRecorder driven over a websocket.
// Text frames carry commands and events, binary frames carry audio chunks.
type WSDevice struct {
	conn         WsConn
	startTimeout time.Duration

	wLock *sync.Mutex
	once  *sync.Once
	done  chan struct{}

	stream *wsStream
}

// NewWSDevice wraps connection, the read loop starts on Open
func NewWSDevice(conn WsConn) *WSDevice {
	return &WSDevice{conn: conn, startTimeout: time.Minute, wLock: &sync.Mutex{},
		once: &sync.Once{}, done: make(chan struct{})}
}

// Done is closed when the read loop exits
func (d *WSDevice) Done() <-chan struct{} {
	return d.done
}

// Open asks the browser to start and waits for the started or error event
func (d *WSDevice) Open(ctx context.Context) (recorder.Stream, error) {
	if d.stream != nil {
		return nil, fmt.Errorf("%w: device already opened", recorder.ErrMediaAccess)
	}
	st := &wsStream{dev: d, data: make(chan []byte, 64), started: make(chan error, 1),
		closeOnce: &sync.Once{}, abort: make(chan struct{})}
	d.stream = st
	go d.readLoop(st)

	err := d.waitStarted(ctx, st)
	if err != nil {
		close(st.abort)
		return nil, err
	}
	return st, nil
}

func (d *WSDevice) waitStarted(ctx context.Context, st *wsStream) error {
	if err := d.send(cmdStart); err != nil {
		return fmt.Errorf("%w: can't send start: %v", recorder.ErrMediaAccess, err)
	}
	select {
	case err := <-st.started:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", recorder.ErrMediaAccess, ctx.Err())
	case <-time.After(d.startTimeout):
		return fmt.Errorf("%w: no start confirmation", recorder.ErrMediaAccess)
	}
}

func (d *WSDevice) send(cmd string) error {
	d.wLock.Lock()
	defer d.wLock.Unlock()
	goapp.Log.Debug().Str("cmd", cmd).Msg("send")
	return d.conn.WriteJSON(command{Cmd: cmd})
}

func (d *WSDevice) readLoop(st *wsStream) {
	defer d.once.Do(func() { close(d.done) })
	defer st.closeData()
	goapp.Log.Info().Msg("enter capture read loop")
	started := false
	for {
		mt, message, err := d.conn.ReadMessage()
		if err != nil {
			if !started {
				st.started <- fmt.Errorf("%w: %v", recorder.ErrMediaAccess, err)
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				goapp.Log.Warn().Err(err).Msg("capture read error")
			}
			break
		}
		if mt == websocket.BinaryMessage {
			if started {
				select {
				case st.data <- message:
				case <-st.abort:
				}
			} else {
				goapp.Log.Warn().Int("size", len(message)).Msg("chunk before start, skip")
			}
			continue
		}
		var ev event
		if err := json.Unmarshal(message, &ev); err != nil {
			goapp.Log.Warn().Str("msg", goapp.Sanitize(string(message))).Msg("can't unmarshal event")
			continue
		}
		goapp.Log.Debug().Str("event", ev.Event).Msg("got event")
		switch ev.Event {
		case evStarted:
			if !started {
				started = true
				st.started <- nil
			}
		case evError:
			if !started {
				st.started <- fmt.Errorf("%w: %s", recorder.ErrMediaAccess, goapp.Sanitize(ev.Message))
				goapp.Log.Info().Msg("exit capture read loop")
				return
			}
			goapp.Log.Warn().Str("error", goapp.Sanitize(ev.Message)).Msg("capture error")
		case evStopped:
			goapp.Log.Info().Msg("exit capture read loop")
			return
		}
	}
	goapp.Log.Info().Msg("exit capture read loop")
}

type wsStream struct {
	dev       *WSDevice
	data      chan []byte
	started   chan error
	closeOnce *sync.Once
	abort     chan struct{}
}

func (s *wsStream) closeData() {
	s.closeOnce.Do(func() { close(s.data) })
}

// Data implements recorder.Stream
func (s *wsStream) Data() <-chan []byte {
	return s.data
}

// Pause implements recorder.Stream
func (s *wsStream) Pause() error {
	return s.dev.send(cmdPause)
}

// Resume implements recorder.Stream
func (s *wsStream) Resume() error {
	return s.dev.send(cmdResume)
}

// Stop implements recorder.Stream, data is closed when the browser reports stopped.
// If the connection is already gone the data channel is closed and there is nothing to stop.
func (s *wsStream) Stop() error {
	select {
	case <-s.dev.done:
		return nil
	default:
	}
	return s.dev.send(cmdStop)
}
