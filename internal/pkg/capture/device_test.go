package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/airenas/scriba/internal/pkg/recorder"
	"github.com/airenas/scriba/internal/pkg/test"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	mt   int
	data []byte
}

type fakeConn struct {
	in  chan frame
	out chan command
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan frame, 20), out: make(chan command, 20)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	f, ok := <-c.in
	if !ok {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	return f.mt, f.data, nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.out <- v.(command)
	return nil
}

func (c *fakeConn) Close() error {
	return nil
}

func (c *fakeConn) event(s string) {
	c.in <- frame{mt: websocket.TextMessage, data: []byte(s)}
}

func (c *fakeConn) chunk(s string) {
	c.in <- frame{mt: websocket.BinaryMessage, data: []byte(s)}
}

func expectCmd(t *testing.T, c *fakeConn, cmd string) {
	t.Helper()
	select {
	case v := <-c.out:
		assert.Equal(t, cmd, v.Cmd)
	case <-time.After(time.Second):
		require.Fail(t, "timeout waiting for "+cmd)
	}
}

func readAll(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	res := ""
	tm := time.After(time.Second * 2)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return res
			}
			res += string(c)
		case <-tm:
			require.Fail(t, "timeout reading data")
			return res
		}
	}
}

func openStarted(t *testing.T) (*WSDevice, *fakeConn, recorder.Stream) {
	t.Helper()
	conn := newFakeConn()
	dev := NewWSDevice(conn)
	conn.event(`{"event":"started"}`)
	st, err := dev.Open(test.Ctx(t))
	require.Nil(t, err)
	expectCmd(t, conn, cmdStart)
	return dev, conn, st
}

func TestOpen(t *testing.T) {
	dev, conn, st := openStarted(t)
	conn.chunk("a")
	conn.chunk("b")

	require.Nil(t, st.Stop())
	expectCmd(t, conn, cmdStop)
	conn.chunk("c")
	conn.event(`{"event":"stopped"}`)

	assert.Equal(t, "abc", readAll(t, st.Data()))
	select {
	case <-dev.Done():
	case <-time.After(time.Second):
		assert.Fail(t, "not done")
	}
}

func TestOpen_ErrorEvent(t *testing.T) {
	conn := newFakeConn()
	dev := NewWSDevice(conn)
	conn.event(`{"event":"error","message":"NotAllowedError"}`)

	st, err := dev.Open(test.Ctx(t))

	assert.Nil(t, st)
	assert.True(t, errors.Is(err, recorder.ErrMediaAccess))
	assert.Contains(t, err.Error(), "NotAllowedError")
	<-dev.Done()
}

func TestOpen_ConnClosed(t *testing.T) {
	conn := newFakeConn()
	dev := NewWSDevice(conn)
	close(conn.in)

	_, err := dev.Open(test.Ctx(t))

	assert.True(t, errors.Is(err, recorder.ErrMediaAccess))
}

func TestOpen_Timeout(t *testing.T) {
	conn := newFakeConn()
	dev := NewWSDevice(conn)
	ctx, cf := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cf()

	_, err := dev.Open(ctx)

	assert.True(t, errors.Is(err, recorder.ErrMediaAccess))
}

func TestOpen_Twice(t *testing.T) {
	dev, _, _ := openStarted(t)

	_, err := dev.Open(test.Ctx(t))

	assert.True(t, errors.Is(err, recorder.ErrMediaAccess))
}

func TestOpen_SkipsEarlyChunks(t *testing.T) {
	conn := newFakeConn()
	dev := NewWSDevice(conn)
	conn.chunk("early")
	conn.event(`olia`)
	conn.event(`{"event":"started"}`)
	st, err := dev.Open(test.Ctx(t))
	require.Nil(t, err)
	conn.chunk("a")
	conn.event(`{"event":"stopped"}`)

	assert.Equal(t, "a", readAll(t, st.Data()))
}

func TestPauseResume(t *testing.T) {
	_, conn, st := openStarted(t)

	require.Nil(t, st.Pause())
	expectCmd(t, conn, cmdPause)
	require.Nil(t, st.Resume())
	expectCmd(t, conn, cmdResume)
}

func TestStop_ConnGone(t *testing.T) {
	dev, conn, st := openStarted(t)
	conn.chunk("a")
	close(conn.in)
	<-dev.Done()

	require.Nil(t, st.Stop())

	assert.Equal(t, "a", readAll(t, st.Data()))
	assert.Equal(t, 0, len(conn.out))
}
