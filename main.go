package main

import (
	"flag"
	"log"
	"strings"

	"kontor/config"
	"kontor/database"
	"kontor/middleware"
	"kontor/router"
)

// @title Kontor API
// @version 1.0
// @description Freelancer bookkeeping: expenses, recurring templates, depreciation schedules and invoice reconciliation
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "path to an external config file (optional)")
	flag.StringVar(&configFile, "c", "", "path to an external config file (shorthand)")
	flag.StringVar(&port, "port", "", "listen port, e.g. 8080 or :8080")
	flag.StringVar(&port, "p", "", "listen port (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&showVersion, "v", false, "print version (shorthand)")
}

func main() {
	flag.Parse()

	if showVersion {
		log.Println("kontor v1.0.0")
		return
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}

	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Printf("port overridden on command line: %s", port)
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		log.Fatalf("database initialization failed: %v", err)
	}

	middleware.InitJWT(cfg)

	r := router.SetupRouter(cfg)

	log.Printf("kontor listening on %s", cfg.Server.Port)
	log.Printf("swagger: http://localhost%s/swagger/index.html", cfg.Server.Port)

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
