// qrstampd serves the QR stamping upload form and API over HTTP.
//
// Usage:
//
//	qrstampd [-config qrstamp.yml]
//
// The listen address comes from the config file, and the PORT environment
// variable overrides it.
package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/gardar/qrstamp/internal/config"
	"github.com/gardar/qrstamp/internal/handlers"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	debug := flag.Bool("debug", false, "Run gin in debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	h, err := handlers.New(cfg)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	h.Register(r)

	log.Printf("qrstampd listening on %s", cfg.Listen)
	if err := r.Run(cfg.Listen); err != nil {
		log.Fatal(err)
	}
}
