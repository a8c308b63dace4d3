package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP    HTTP    `envPrefix:"HTTP_"`
		Logger  Logger  `envPrefix:"LOGGER_"`
		Tile    Tile    `envPrefix:"TILE_"`
		DB      DB      `envPrefix:"DB_"`
		Session Session `envPrefix:"SESSION_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Tile struct {
		// ChunkZoom is the fixed zoom level ingested imagery is chunked at.
		ChunkZoom int `env:"CHUNK_ZOOM" envDefault:"10"`
		// Size is the pixel edge length of a served tile.
		Size           int   `env:"SIZE" envDefault:"256"`
		MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"262144000"`
	}

	DB struct {
		Path string `env:"PATH" envDefault:"tiles.db"`
	}

	Session struct {
		CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE" envDefault:"2m"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
