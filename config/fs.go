package config

import "github.com/spf13/afero"

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in unit tests that need to read config files.
var fs = afero.NewOsFs()
