package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// PlatformIOEnv holds the variables PlatformIO exports to commands it
// runs while building.
type PlatformIOEnv struct {
	Env        string `envconfig:"PIOENV"`
	ProjectDir string `envconfig:"PROJECT_DIR"`
	BuildDir   string `envconfig:"BUILD_DIR"`
	BuildFlags string `envconfig:"PLATFORMIO_BUILD_FLAGS"`
}

// LoadPlatformIOEnv reads the PlatformIO variables from the environment.
func LoadPlatformIOEnv() (PlatformIOEnv, error) {
	var env PlatformIOEnv
	if err := envconfig.Process("", &env); err != nil {
		return PlatformIOEnv{}, fmt.Errorf("failed to process env: %w", err)
	}
	return env, nil
}
