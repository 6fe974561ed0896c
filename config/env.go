package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvVar selects the active environment when no explicit override is given.
	EnvVar = "KEEL_ENV"
	// FolderVar overrides the configuration root folder.
	FolderVar = "KEEL_CONFIG_FOLDER"
	// AppNameVar nests candidate files one folder level under an application name.
	AppNameVar = "KEEL_APP_NAME"

	// DefaultFolder is the configuration root folder used when FolderVar is unset.
	DefaultFolder = "config"
)

// Environment is the named deployment context selecting which configuration
// file layer is active. Any string is a valid environment; the constants below
// cover the conventional ones.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Test        Environment = "test"
)

// DefaultEnvironment applies when neither an override nor EnvVar is set.
const DefaultEnvironment = Development

// String returns the environment name.
func (e Environment) String() string {
	return string(e)
}

// ResolveEnvironment determines the active environment. Precedence: the
// explicit override (typically a CLI flag) > the EnvVar environment variable >
// DefaultEnvironment. There is no error path.
func ResolveEnvironment(override string) Environment {
	if v := strings.TrimSpace(override); v != "" {
		return Environment(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvVar)); v != "" {
		return Environment(v)
	}
	return DefaultEnvironment
}

// LoadDotenv loads `.env`-style files into the process environment, silently
// doing nothing when none exist. With no arguments it loads `.env` from the
// working directory. Variables that are already set are never overridden.
func LoadDotenv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadConfig loads the configuration document for e, honoring the FolderVar
// and AppNameVar environment variables.
func (e Environment) LoadConfig() (*Document, error) {
	loader := Loader{
		Folder:  os.Getenv(FolderVar),
		AppName: os.Getenv(AppNameVar),
	}
	return loader.Load(e)
}
