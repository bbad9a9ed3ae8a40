package main

import (
	"context"
	"log"

	"github.com/ryounan4/Cramify/internal/bootstrap"
	"github.com/ryounan4/Cramify/internal/config"
	"github.com/ryounan4/Cramify/internal/server"
	"github.com/ryounan4/Cramify/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	// 3. Initialize Server
	srv := server.New(cfg, container)

	// 4. Run Server
	log.Fatal(srv.Run())
}
