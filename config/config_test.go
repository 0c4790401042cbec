package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		expConfig File
		expError  bool
	}{
		{
			name: "Full",
			contents: `host: ftp.example.com
port: 2121
username: deployer
blackListed:
  - site/img
  - site/tmp
`,
			expConfig: File{
				Host:        "ftp.example.com",
				Port:        2121,
				Username:    "deployer",
				BlackListed: []string{"site/img", "site/tmp"},
			},
		},
		{
			name:      "PartialDefaults",
			contents:  "host: ftp.example.com\n",
			expConfig: File{Host: "ftp.example.com"},
		},
		{
			name:     "UnknownField",
			contents: "host: ftp.example.com\nblacklst: [a]\n",
			expError: true,
		},
		{
			name:     "NotYAML",
			contents: "{{{",
			expError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "deploy.yaml",
				[]byte(test.contents), 0644))

			file, err := LoadFile("deploy.yaml")
			if test.expError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expConfig, file)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	fs = afero.NewMemMapFs()
	_, err := LoadFile("nonexistent.yaml")
	assert.Error(t, err)
}

func TestMustLoad(t *testing.T) {
	t.Setenv("FTPS_KEY_PASSWORD", "hunter2")
	t.Setenv("FTPS_CERT_PATH", "./certs/mycert.pfx")

	envr, err := MustLoad()
	require.NoError(t, err)
	assert.Equal(t, "./certs/mycert.pfx", envr.CertPath)
	assert.Equal(t, "hunter2", envr.KeyPassword)
}

func TestMustLoadMissingPassword(t *testing.T) {
	t.Setenv("FTPS_KEY_PASSWORD", "")
	t.Setenv("FTPS_CERT_PATH", "./certs/mycert.pfx")

	_, err := MustLoad()
	assert.Error(t, err)
}
