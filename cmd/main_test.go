package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftp_deployer/internal/session"
)

// fakeRemote records the primitive calls issued within one session.
type fakeRemote struct {
	calls []string
}

func (f *fakeRemote) MakeDir(path string) error {
	f.calls = append(f.calls, "mkd "+path)
	return nil
}

func (f *fakeRemote) Rename(from, to string) error {
	f.calls = append(f.calls, "rename "+from+" "+to)
	return nil
}

func (f *fakeRemote) RemoveDirRecur(path string) error {
	f.calls = append(f.calls, "rmrf "+path)
	return nil
}

func (f *fakeRemote) List(path string) ([]*ftp.Entry, error) {
	f.calls = append(f.calls, "list "+path)
	return nil, nil
}

func (f *fakeRemote) Stor(path string, r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	f.calls = append(f.calls, "stor "+path)
	return nil
}

func (f *fakeRemote) Retr(path string) (io.ReadCloser, error) {
	f.calls = append(f.calls, "retr "+path)
	return io.NopCloser(strings.NewReader("")), nil
}

func TestSplitPair(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expFirst  string
		expSecond string
		expError  bool
	}{
		{name: "Simple", value: "site:public_html", expFirst: "site", expSecond: "public_html"},
		{name: "NestedPaths", value: "build/out:sites/example.com/www", expFirst: "build/out", expSecond: "sites/example.com/www"},
		{name: "WindowsDriveSource", value: `C:\site:public_html`, expFirst: `C:\site`, expSecond: "public_html"},
		{name: "MissingSeparator", value: "site", expError: true},
		{name: "EmptyFirst", value: ":public_html", expError: true},
		{name: "EmptySecond", value: "site:", expError: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			first, second, err := splitPair("upload", test.value)
			if test.expError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expFirst, first)
			assert.Equal(t, test.expSecond, second)
		})
	}
}

func TestRunRequiresHostAndUser(t *testing.T) {
	err := run(options{username: "deployer", uploadPair: "site:public_html"})
	assert.ErrorContains(t, err, "--ftp")

	err = run(options{host: "ftp.example.com", uploadPair: "site:public_html"})
	assert.ErrorContains(t, err, "--username")
}

func TestRunRequiresAnOperation(t *testing.T) {
	err := run(options{host: "ftp.example.com", username: "deployer"})
	assert.ErrorContains(t, err, "no operation requested")
}

// TestRunDispatchOrder requests all four operations in one invocation and
// checks that each one opens its own session and that the sessions run in
// the fixed order upload, deploy, backup, remove.
func TestRunDispatchOrder(t *testing.T) {
	localSite := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(localSite, "index.html"), []byte("<html/>"), 0644))

	// Backup mirrors the remote path verbatim onto local disk, so point it
	// inside a temp dir.
	backupRoot := filepath.Join(t.TempDir(), "public_html")

	origWith, origRead := withSession, readPassword
	defer func() {
		withSession, readPassword = origWith, origRead
	}()
	readPassword = func(int) ([]byte, error) {
		return []byte("secret"), nil
	}

	var sessions []*fakeRemote
	var passwords []string
	withSession = func(p session.Params, fn func(session.Remote) error) error {
		remote := &fakeRemote{}
		sessions = append(sessions, remote)
		passwords = append(passwords, p.Password)
		return fn(remote)
	}

	require.NoError(t, run(options{
		host:       "ftp.example.com",
		port:       21,
		username:   "deployer",
		uploadPair: localSite + ":public_html",
		deployPair: "new_site:www",
		backupPath: backupRoot,
		removePath: "old_site",
	}))

	require.Len(t, sessions, 4)
	assert.Equal(t, []string{
		"mkd public_html",
		"stor public_html/index.html",
	}, sessions[0].calls)
	assert.Equal(t, []string{
		"list .",
		"rename www www.bak",
		"rename new_site www",
	}, sessions[1].calls)
	assert.Equal(t, []string{"list " + backupRoot}, sessions[2].calls)
	assert.Equal(t, []string{"rmrf old_site"}, sessions[3].calls)

	// The prompted password reaches every session.
	assert.Equal(t, []string{"secret", "secret", "secret", "secret"}, passwords)
}

// TestRunAbortsOnFailure checks that a failed operation stops the fixed
// sequence before the remaining operations open their sessions.
func TestRunAbortsOnFailure(t *testing.T) {
	origWith, origRead := withSession, readPassword
	defer func() {
		withSession, readPassword = origWith, origRead
	}()
	readPassword = func(int) ([]byte, error) {
		return []byte("secret"), nil
	}

	var opened int
	withSession = func(p session.Params, fn func(session.Remote) error) error {
		opened++
		return assert.AnError
	}

	err := run(options{
		host:       "ftp.example.com",
		port:       21,
		username:   "deployer",
		deployPair: "new_site:www",
		removePath: "old_site",
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, opened)
}
