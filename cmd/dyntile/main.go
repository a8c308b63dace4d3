package main

import (
	"log"

	"github.com/geoforge/dyntile/internal/app"
	"github.com/geoforge/dyntile/pkg/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
