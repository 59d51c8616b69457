// Fyzio Akademie backend: course checkout, subscriptions and learner dashboard.
//
//	@title						Fyzio Akademie API
//	@version					1.0
//	@description				Backend for online physiotherapy courses.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Supabase access token: "Bearer <token>"
package main

import (
	"flag"
	"fmt"
	"os"

	"fyzioakademie/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $CONFIG_PATH or config/config.yaml)")
	migrateOnly := flag.Bool("migrate-only", false, "apply migrations and exit")
	flag.Parse()

	if err := app.Run(app.Options{ConfigPath: *configPath, MigrateOnly: *migrateOnly}); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
