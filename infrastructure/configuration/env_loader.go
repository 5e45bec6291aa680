package configuration

import (
	"errors"
	"io/fs"

	"playlist-service/infrastructure/logger"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads KEY=VALUE files (e.g. config.env, .env) in order. Missing files are skipped
// and variables already present in the environment are not overridden.
func LoadEnvFiles(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.GetLogger().WithField("file", p).WithField("error", err).Warn("failed loading env file")
			continue
		}
		logger.GetLogger().WithField("file", p).Info("Loaded env file")
	}
}
