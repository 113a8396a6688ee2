package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/config"
)

func main() {
	_ = godotenv.Load()
	gin.SetMode(gin.ReleaseMode)
	cfg := config.MustLoad()
	app.Run(cfg)
}
