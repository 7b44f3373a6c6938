package main

import (
	"vidtube/pkg/config"
	app "vidtube/services/user/internal/app"

	_ "vidtube/services/user/docs" // Swagger docs
)

// @title           VidTube User Service API
// @version         1.0
// @description     Accounts, sessions, profile media and channel views for the VidTube platform

// @host      localhost:8000
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}
