package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/audio"
	"github.com/airenas/scriba/internal/pkg/playback"
	"github.com/airenas/scriba/internal/pkg/recorder"
	"github.com/rs/zerolog"
)

// User visible messages
const (
	MsgInvalidFileType = "Only MP3 files are allowed."
	MsgMediaAccess     = "Microphone access denied or unavailable."
	MsgTranscription   = "Error transcribing audio. Please try again."
	MsgStop            = "Error stopping recording. Please try again."
	MsgTooLarge        = "Recording is too large."
)

// ErrBusy is returned when a transcription is already in flight
var ErrBusy = errors.New("transcription in progress")

// Transcriber converts audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, p *audio.Payload) (string, error)
}

// PlaybackStore issues and releases preview handles
type PlaybackStore interface {
	Issue(p *audio.Payload) playback.Handle
	Release(h playback.Handle)
}

// State is a snapshot for rendering
type State struct {
	Error         string `json:"error,omitempty"`
	Transcript    string `json:"transcript,omitempty"`
	PlaybackURL   string `json:"playbackURL,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	Recording     string `json:"recording"`
	Busy          bool   `json:"busy"`
	CanTranscribe bool   `json:"canTranscribe"`
}

// Workspace is the interface state. All changes go through its methods.
type Workspace struct {
	transcriber  Transcriber
	playback     PlaybackStore
	maxRecording int64

	lock       *sync.Mutex
	payload    *audio.Payload
	handle     playback.Handle
	session    *recorder.Session
	errMsg     string
	transcript string
	inFlight   bool
}

// New creates empty workspace, maxRecording limits recorded bytes (0 - no limit)
func New(tr Transcriber, pb PlaybackStore, maxRecording int64) (*Workspace, error) {
	if tr == nil {
		return nil, fmt.Errorf("no transcriber")
	}
	if pb == nil {
		return nil, fmt.Errorf("no playback store")
	}
	if maxRecording < 0 {
		return nil, fmt.Errorf("wrong max recording size %d", maxRecording)
	}
	return &Workspace{transcriber: tr, playback: pb, maxRecording: maxRecording, lock: &sync.Mutex{}}, nil
}

// SelectFile stages a picked file. A not MP3 file clears the current payload.
func (w *Workspace) SelectFile(name, mimeType string, content []byte) error {
	p, err := audio.FromFile(name, mimeType, content)

	w.lock.Lock()
	defer w.lock.Unlock()
	if err != nil {
		goapp.Log.Warn().Str("type", goapp.Sanitize(mimeType)).Msg("file rejected")
		w.setPayload(nil)
		w.errMsg = MsgInvalidFileType
		return err
	}
	w.discardSession()
	w.setPayload(p)
	w.errMsg = ""
	withPayload(goapp.Log.Info(), p).Msg("file selected")
	return nil
}

// StartRecording opens the device and makes the new session the active source
func (w *Workspace) StartRecording(ctx context.Context, dev recorder.Device) error {
	s, err := recorder.Start(ctx, dev, w.maxRecording)

	w.lock.Lock()
	defer w.lock.Unlock()
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't start recording")
		w.errMsg = MsgMediaAccess
		return err
	}
	w.discardSession()
	w.session = s
	w.setPayload(nil)
	w.errMsg = ""
	return nil
}

// PauseOrResume toggles the active session, no session means no-op
func (w *Workspace) PauseOrResume() error {
	w.lock.Lock()
	s := w.session
	w.lock.Unlock()
	if s == nil {
		return nil
	}
	return s.PauseOrResume()
}

// StopRecording finalizes the active session into the current payload
func (w *Workspace) StopRecording(ctx context.Context) error {
	w.lock.Lock()
	s := w.session
	w.lock.Unlock()
	if s == nil {
		return nil
	}

	p, err := s.Stop(ctx)
	if errors.Is(err, recorder.ErrNotActive) {
		return nil
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	if w.session != s {
		goapp.Log.Info().Msg("session superseded while stopping, drop result")
		return nil
	}
	w.session = nil
	if errors.Is(err, recorder.ErrTooLarge) {
		w.errMsg = MsgTooLarge
		return err
	}
	if err != nil {
		goapp.Log.Error().Err(err).Msg("can't stop recording")
		w.errMsg = MsgStop
		return err
	}
	w.setPayload(p)
	w.errMsg = ""
	withPayload(goapp.Log.Info(), p).Msg("recording staged")
	return nil
}

// Transcribe sends the current payload for recognition.
// Without payload it does nothing, while another call is running it returns ErrBusy.
func (w *Workspace) Transcribe(ctx context.Context) error {
	w.lock.Lock()
	if w.payload == nil {
		w.lock.Unlock()
		return nil
	}
	if w.inFlight {
		w.lock.Unlock()
		return ErrBusy
	}
	w.inFlight = true
	p := w.payload
	w.lock.Unlock()

	defer goapp.Estimate("transcribe")()
	withPayload(goapp.Log.Info(), p).Msg("transcribe")
	text, err := w.transcriber.Transcribe(ctx, p)

	w.lock.Lock()
	defer w.lock.Unlock()
	w.inFlight = false
	if err != nil {
		goapp.Log.Error().Err(err).Msg("can't transcribe")
		w.errMsg = MsgTranscription
		return err
	}
	w.transcript = text
	w.errMsg = ""
	return nil
}

// Snapshot returns current state
func (w *Workspace) Snapshot() State {
	w.lock.Lock()
	defer w.lock.Unlock()
	res := State{Error: w.errMsg, Transcript: w.transcript, PlaybackURL: w.handle.URL(),
		Busy: w.inFlight, Recording: recorder.Idle.String()}
	if w.payload != nil {
		res.FileName = w.payload.Name
		res.CanTranscribe = !w.inFlight
	}
	if w.session != nil {
		res.Recording = w.session.State().String()
	}
	return res
}

// Close releases everything the workspace holds
func (w *Workspace) Close() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.discardSession()
	w.setPayload(nil)
	goapp.Log.Info().Msg("workspace closed")
}

// setPayload replaces the current payload, the old handle is always released
func (w *Workspace) setPayload(p *audio.Payload) {
	w.playback.Release(w.handle)
	w.handle = playback.Handle{}
	w.payload = p
	if p != nil {
		w.handle = w.playback.Issue(p)
	}
}

func (w *Workspace) discardSession() {
	if w.session != nil {
		w.session.Discard()
		w.session = nil
	}
}

func withPayload(le *zerolog.Event, p *audio.Payload) *zerolog.Event {
	return le.Str("name", goapp.Sanitize(p.Name)).Str("type", p.MIMEType).Int("size", p.Size())
}
