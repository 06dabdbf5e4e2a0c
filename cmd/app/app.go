package main

import (
	"os"

	"github.com/DRSN-tech/ordering-backend/internal/app"
	config "github.com/DRSN-tech/ordering-backend/internal/cfg"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

//	@title			Ordering API
//	@version		1.0
//	@description	Категории, продукты и заказы ресторана.
//	@BasePath		/api/v1
func main() {
	envErr := config.LoadEnvFile()

	boot, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"), "ordering-backend")
	if err != nil {
		os.Exit(1)
	}

	if envErr != nil {
		boot.Errorf(envErr, "failed to read .env")
		os.Exit(1)
	}

	cfg, err := config.Load(boot)
	if err != nil {
		boot.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Env, cfg.App.Name)
	if err != nil {
		boot.Errorf(err, "failed to initialize logger")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
