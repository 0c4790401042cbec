// Package transfer drives the recursive directory-tree walks that move
// files between the local machine and the remote server. Upload mirrors a
// local tree under a remote target root; Backup mirrors a remote tree onto
// local disk verbatim. Both prune blacklisted subtrees whole and abort on
// the first transfer failure.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path"
	"path/filepath"

	"github.com/jlaffaye/ftp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"ftp_deployer/internal/pathfilter"
	"ftp_deployer/internal/session"
)

// Upload walks the local tree rooted at localRoot and recreates it on the
// server under remoteRoot. Directories are created idempotently; every
// non-excluded regular file is stored at its root-substituted remote path.
func Upload(remote session.Remote, localRoot, remoteRoot string, blacklist []string) error {
	return afero.Walk(fs, localRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", p, err)
		}

		if pathfilter.Excluded(filepath.ToSlash(p), blacklist) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dest, err := substituteRoot(p, localRoot, remoteRoot)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if err := makeDir(remote, dest); err != nil {
				return err
			}
			log.WithField("path", dest).Info("Created remote directory")
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		if err := storeFile(remote, p, dest); err != nil {
			return err
		}
		log.WithFields(log.Fields{"local": p, "remote": dest}).Info("Uploaded file")
		return nil
	})
}

// Backup downloads the remote tree rooted at remoteRoot into identically
// named local directories. Paths are mirrored verbatim, so backing up
// "public_html" creates a local "public_html". Parent directories are
// created before the files inside them; the walk guarantees parents are
// visited first.
func Backup(remote session.Remote, remoteRoot string, blacklist []string) error {
	if pathfilter.Excluded(remoteRoot, blacklist) {
		return nil
	}
	return backupDir(remote, remoteRoot, blacklist)
}

func backupDir(remote session.Remote, dir string, blacklist []string) error {
	entries, err := remote.List(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	if err := fs.MkdirAll(filepath.FromSlash(dir), 0755); err != nil {
		return fmt.Errorf("creating local directory %s: %w", dir, err)
	}
	log.WithField("path", dir).Info("Created local directory")

	var subdirs []string
	for _, entry := range entries {
		switch entry.Type {
		case ftp.EntryTypeFolder:
			if entry.Name == "." || entry.Name == ".." {
				continue
			}
			sub := path.Join(dir, entry.Name)
			if !pathfilter.Excluded(sub, blacklist) {
				subdirs = append(subdirs, sub)
			}
		case ftp.EntryTypeFile:
			p := path.Join(dir, entry.Name)
			if pathfilter.Excluded(p, blacklist) {
				continue
			}
			if err := retrieveFile(remote, p); err != nil {
				return err
			}
			log.WithField("path", p).Info("Downloaded file")
		}
		// Links and other entry types are ignored: following a remote
		// symlink can hit an unreadable target or a listing cycle.
	}

	for _, sub := range subdirs {
		if err := backupDir(remote, sub, blacklist); err != nil {
			return err
		}
	}
	return nil
}

// substituteRoot replaces the localRoot prefix of p with remoteRoot,
// yielding the slash-separated remote destination.
func substituteRoot(p, localRoot, remoteRoot string) (string, error) {
	rel, err := filepath.Rel(localRoot, p)
	if err != nil {
		return "", fmt.Errorf("relativizing %s against %s: %w", p, localRoot, err)
	}
	if rel == "." {
		return remoteRoot, nil
	}
	return path.Join(remoteRoot, filepath.ToSlash(rel)), nil
}

// makeDir creates a remote directory, treating "already exists" as success
// so re-running an upload over a previous one works. FTP reports the
// condition as a 550 reply to MKD; a 550 raised for another reason still
// surfaces on the first transfer into the directory.
func makeDir(remote session.Remote, dir string) error {
	err := remote.MakeDir(dir)
	if err == nil {
		return nil
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable {
		log.WithField("path", dir).Debug("Remote directory already exists")
		return nil
	}
	return fmt.Errorf("creating remote directory %s: %w", dir, err)
}

func storeFile(remote session.Remote, local, dest string) error {
	f, err := fs.Open(local)
	if err != nil {
		return fmt.Errorf("opening %s: %w", local, err)
	}
	storErr := remote.Stor(dest, f)
	if err := f.Close(); storErr == nil {
		storErr = err
	}
	if storErr != nil {
		return fmt.Errorf("uploading %s to %s: %w", local, dest, storErr)
	}
	return nil
}

func retrieveFile(remote session.Remote, p string) error {
	resp, err := remote.Retr(p)
	if err != nil {
		return fmt.Errorf("retrieving %s: %w", p, err)
	}

	f, err := fs.Create(filepath.FromSlash(p))
	if err != nil {
		resp.Close()
		return fmt.Errorf("creating %s: %w", p, err)
	}

	_, copyErr := io.Copy(f, resp)
	if err := resp.Close(); copyErr == nil {
		copyErr = err
	}
	if err := f.Close(); copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return fmt.Errorf("downloading %s: %w", p, copyErr)
	}
	return nil
}
