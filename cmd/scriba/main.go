package main

import (
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/playback"
	"github.com/airenas/scriba/internal/pkg/transcriber"
	"github.com/airenas/scriba/internal/pkg/ui"
	"github.com/airenas/scriba/internal/pkg/utils"
	"github.com/airenas/scriba/internal/pkg/workspace"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	envErr := godotenv.Load()
	goapp.StartWithDefault()
	if envErr != nil {
		goapp.Log.Debug().Err(envErr).Msg("no .env loaded")
	}

	printBanner()

	cfg := goapp.Config
	tr, err := transcriber.NewClient(cfg.GetString("transcriber.url"), cfg.GetDuration("transcriber.timeout"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcriber")
	}
	data := newUIData(cfg)
	store := playback.NewStore()
	ws, err := workspace.New(tr, store, data.MaxFileSize)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init workspace")
	}
	defer ws.Close()

	data.Workspace = ws
	data.Playback = store

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	if err := ui.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("exit web service")
}

func newUIData(cfg *viper.Viper) *ui.Data {
	res := &ui.Data{}
	res.Port = defaultV(cfg.GetInt("port"), 8000)
	res.MaxFileSize = defaultV(cfg.GetInt64("file.maxSize"), int64(50*1024*1024))
	res.MaxChunk = defaultV(cfg.GetInt64("capture.maxChunk"), int64(512*1024))
	return res
}

func defaultV[T comparable](v, d T) T {
	var def T
	if v == def {
		return d
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                   _ __        
   ______________(_) /_  ____ _
  / ___/ ___/ ___/ / __ \/ __ ` + "`" + `/
 (__  ) /__/ /  / / /_/ / /_/ / 
/____/\___/_/  /_/_.___/\__,_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/scriba"))
}
