package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func Test_defaultV(t *testing.T) {
	assert.Equal(t, "vd", defaultV("", "vd"))
	assert.Equal(t, "aaa", defaultV("aaa", "vd"))
	assert.Equal(t, 8000, defaultV(0, 8000))
	assert.Equal(t, 10, defaultV(10, 1))
	assert.Equal(t, int64(512), defaultV(int64(0), int64(512)))
	assert.Equal(t, time.Minute, defaultV(time.Duration(0), time.Minute))
	assert.Equal(t, time.Minute*5, defaultV(time.Minute*5, time.Minute))
}

func Test_newUIData(t *testing.T) {
	cfg := viper.New()

	d := newUIData(cfg)

	assert.Equal(t, 8000, d.Port)
	assert.Equal(t, int64(50*1024*1024), d.MaxFileSize)
	assert.Equal(t, int64(512*1024), d.MaxChunk)
}

func Test_newUIData_Set(t *testing.T) {
	cfg := viper.New()
	cfg.Set("port", 9000)
	cfg.Set("file.maxSize", 100)
	cfg.Set("capture.maxChunk", 10)

	d := newUIData(cfg)

	assert.Equal(t, 9000, d.Port)
	assert.Equal(t, int64(100), d.MaxFileSize)
	assert.Equal(t, int64(10), d.MaxChunk)
}
