package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv pulls a local .env into the process environment. Missing file is
// fine in deployment, where the environment is set externally.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
}
