package main

import (
	stdLog "log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/app"
	"github.com/Astemirdum/book-lending/lending/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Fatal("load envs from .env ", zap.Error(err))
	}
	cfg := config.NewConfig(
		config.WithWriteTimeout(time.Minute),
		config.WithReadTimeout(30*time.Second),
	)

	app.Run(cfg)
}
