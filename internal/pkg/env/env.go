package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv returns the value for key from the loaded .env file, falling back to
// the process environment (Docker/tests) and finally to def.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found relative to the working
// directory. Missing files are tolerated so containerized deployments can run
// on process environment alone.
func SetupEnvFile() {
	envFiles := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	Env = map[string]string{}
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
