package ui

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/websocket"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/audio"
	"github.com/airenas/scriba/internal/pkg/capture"
	"github.com/airenas/scriba/internal/pkg/recorder"
	"github.com/airenas/scriba/internal/pkg/transcriber"
	"github.com/airenas/scriba/internal/pkg/workspace"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Workspace is the interface state the handlers drive
type Workspace interface {
	SelectFile(name, mimeType string, content []byte) error
	StartRecording(ctx context.Context, dev recorder.Device) error
	PauseOrResume() error
	StopRecording(ctx context.Context) error
	Transcribe(ctx context.Context) error
	Snapshot() workspace.State
}

// PlaybackProvider returns payload by handle ID
type PlaybackProvider interface {
	Get(id string) (*audio.Payload, bool)
}

// Data keeps data required for service work
type Data struct {
	Port        int
	Workspace   Workspace
	Playback    PlaybackProvider
	MaxFileSize int64
	MaxChunk    int64
}

// PrmFile is the multipart field of a picked file
const PrmFile = "file"

//go:embed index.html
var indexPage []byte

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP SCRIBA ui service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 180 * time.Second
	e.Server.WriteTimeout = 10 * time.Minute

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Workspace == nil {
		return fmt.Errorf("no workspace")
	}
	if data.Playback == nil {
		return fmt.Errorf("no playback provider")
	}
	if data.MaxFileSize <= 0 {
		return fmt.Errorf("wrong max file size %d", data.MaxFileSize)
	}
	if data.MaxChunk <= 0 {
		return fmt.Errorf("wrong max chunk size %d", data.MaxChunk)
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("scriba_ui", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/", index(data))
	e.GET("/state", state(data))
	e.POST("/file", selectFile(data))
	e.GET("/capture", captureHandler(data))
	e.POST("/record/pause", pauseOrResume(data))
	e.POST("/record/stop", stop(data))
	e.POST("/transcribe", transcribe(data))
	e.GET("/playback/:id", playbackHandler(data))
	e.HEAD("/playback/:id", playbackHandler(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func index(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, indexPage)
	}
}

func state(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, data.Workspace.Snapshot())
	}
}

func selectFile(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("file method")()

		fh, err := c.FormFile(PrmFile)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no file")
		}
		if fh.Size > data.MaxFileSize {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
		}
		f, err := fh.Open()
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't read file")
		}
		defer f.Close()
		content, err := io.ReadAll(io.LimitReader(f, data.MaxFileSize+1))
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't read file")
		}
		if int64(len(content)) > data.MaxFileSize {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
		}

		err = data.Workspace.SelectFile(fh.Filename, fh.Header.Get(echo.HeaderContentType), content)
		if errors.Is(err, audio.ErrInvalidFileType) {
			return c.JSON(http.StatusBadRequest, data.Workspace.Snapshot())
		}
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, data.Workspace.Snapshot())
	}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func captureHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()
		ws.SetReadLimit(data.MaxChunk)

		dev := capture.NewWSDevice(ws)
		if err := data.Workspace.StartRecording(c.Request().Context(), dev); err != nil {
			return nil
		}
		<-dev.Done()
		goapp.Log.Info().Msg("capture connection finished")
		return nil
	}
}

func pauseOrResume(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.Workspace.PauseOrResume(); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "can't pause or resume")
		}
		return c.JSON(http.StatusOK, data.Workspace.Snapshot())
	}
}

func stop(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("stop method")()
		err := data.Workspace.StopRecording(c.Request().Context())
		if errors.Is(err, recorder.ErrTooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, data.Workspace.Snapshot())
		}
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return c.JSON(http.StatusInternalServerError, data.Workspace.Snapshot())
		}
		return c.JSON(http.StatusOK, data.Workspace.Snapshot())
	}
}

func transcribe(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		err := data.Workspace.Transcribe(c.Request().Context())
		if errors.Is(err, workspace.ErrBusy) {
			return c.JSON(http.StatusConflict, data.Workspace.Snapshot())
		}
		if errors.Is(err, transcriber.ErrRequest) {
			return c.JSON(http.StatusBadGateway, data.Workspace.Snapshot())
		}
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return c.JSON(http.StatusInternalServerError, data.Workspace.Snapshot())
		}
		return c.JSON(http.StatusOK, data.Workspace.Snapshot())
	}
}

func playbackHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		p, ok := data.Playback.Get(id)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		w := c.Response()
		w.Header().Set(echo.HeaderContentType, p.MIMEType)
		w.Header().Set("Cache-Control", "no-store")
		http.ServeContent(w, c.Request(), p.Name, time.Time{}, bytes.NewReader(p.Content))
		return nil
	}
}
