package configs

import (
	"flag"
	"os"

	"github.com/hilthontt/spinwheel/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from --config, SPINWHEEL_CONFIG
// or a list of conventional locations. An empty result means defaults only.
func DetermineConfigPath() string {
	var configPath string

	if flag.Lookup("config") == nil {
		flag.StringVar(&configPath, "config", "", "path to config file")
	}
	if !flag.Parsed() {
		flag.Parse()
	}

	if configPath == "" {
		configPath = env.GetString("SPINWHEEL_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"../../config.yaml", // keep for local dev
			"/etc/spinwheel/config.yaml",
			"/app/config.yaml", // common in Docker
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
