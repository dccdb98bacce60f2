package api

import (
	"github.com/aphrx/stopboard/pkg/api/routes"
	"github.com/aphrx/stopboard/pkg/config"
	"github.com/gofiber/fiber/v2"
)

func SetupServer(cfg config.Config) *fiber.App {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/api")

	group.Get("version", routes.APIVersion)

	routes.NewStopBoard(cfg).Router(group)

	return webApp
}
