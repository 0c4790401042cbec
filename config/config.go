package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
)

// Environment holds the FTPS client certificate material. It is loaded from
// the environment so the certificate password never appears in argv or in a
// config file checked into a site repository.
type Environment struct {
	CertPath    string
	KeyPassword string
}

// MustLoad reads the FTPS certificate settings from the environment.
// Both variables are required once FTPS is requested.
func MustLoad() (Environment, error) {
	var envr Environment

	envr.KeyPassword = os.Getenv("FTPS_KEY_PASSWORD")
	if envr.KeyPassword == "" {
		return envr, errors.New("FTPS_KEY_PASSWORD environment variable is not set")
	}

	envr.CertPath = os.Getenv("FTPS_CERT_PATH")
	if envr.CertPath == "" {
		return envr, errors.New("FTPS_CERT_PATH environment variable is not set")
	}
	return envr, nil
}

// File is the optional YAML configuration file. It carries connection
// defaults and the blacklist so repeated deploys of the same site don't need
// the full flag set. Flags take precedence over file values.
type File struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	Username    string   `json:"username"`
	BlackListed []string `json:"blackListed"`
}

// LoadFile parses the YAML configuration file at path. Unknown fields are
// rejected so a typoed key fails instead of being silently ignored.
func LoadFile(path string) (File, error) {
	var file File

	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		return File{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(configBytes, &file, yaml.DisallowUnknownFields); err != nil {
		return File{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return file, nil
}
