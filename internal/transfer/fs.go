package transfer

import "github.com/spf13/afero"

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in unit tests so upload and backup can run against an in-memory tree.
var fs = afero.NewOsFs()
