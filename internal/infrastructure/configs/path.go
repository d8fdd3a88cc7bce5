package configs

import (
	"flag"
	"os"

	"github.com/virtualclassroom/backend/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the --config
// flag, the CLASSROOM_CONFIG env var, or a list of well-known locations.
// An empty result means "defaults only" and is not an error.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("CLASSROOM_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/classroom/config.yaml",
			"/app/config.yaml",
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
