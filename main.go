package main

import (
	"chromebook_lending/app"
	"chromebook_lending/config"
	"chromebook_lending/db"
	"chromebook_lending/routes"
	"context"
	"log"
	"os"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	// First-run: leave an invite for the bootstrap admin if configured.
	app.BootstrapFirstAdmin(context.Background(), application.Config, db.NewRepo(application.DB))

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
