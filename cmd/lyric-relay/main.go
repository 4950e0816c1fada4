package main

import (
	"lyric-relay/internal/app"
	"lyric-relay/internal/config"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	application.Run()
}
