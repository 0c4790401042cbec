// Package deploy holds the remote directory operations that change the
// serving state of the site: the two-rename deploy swap and the recursive
// remove.
package deploy

import (
	"fmt"
	"path"

	log "github.com/sirupsen/logrus"

	"ftp_deployer/internal/session"
)

// Deploy swaps the staged directory into the live position: live is renamed
// to live + ".bak", then staged is renamed to live. The two renames are not
// atomic. If the connection drops between them, nothing is serving at live
// and the old content sits under the .bak name; no rollback is attempted
// and the operator has to repair the server state by hand.
func Deploy(remote session.Remote, staged, live string) error {
	bak := live + ".bak"

	// Rename behavior onto an existing directory is server-defined, so a
	// leftover .bak from a previous deploy aborts the whole operation
	// before any rename happens.
	exists, err := dirExists(remote, bak)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("backup directory %s already exists, refusing to overwrite it", bak)
	}

	if err := remote.Rename(live, bak); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", live, bak, err)
	}
	log.WithFields(log.Fields{"from": live, "to": bak}).Info("Renamed directory")

	if err := remote.Rename(staged, live); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", staged, live, err)
	}
	log.WithFields(log.Fields{"from": staged, "to": live}).Info("Renamed directory")
	return nil
}

// RemoveTree deletes the remote directory and every descendant. No
// confirmation, no blacklist: the caller owns the correctness of the path.
func RemoveTree(remote session.Remote, p string) error {
	if err := remote.RemoveDirRecur(p); err != nil {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	log.WithField("path", p).Info("Removed directory tree")
	return nil
}

// dirExists checks for p by listing its parent directory. FTP has no
// portable existence probe, and MLST support is spotty on shared hosts.
func dirExists(remote session.Remote, p string) (bool, error) {
	parent := path.Dir(p)
	entries, err := remote.List(parent)
	if err != nil {
		return false, fmt.Errorf("listing %s: %w", parent, err)
	}
	base := path.Base(p)
	for _, entry := range entries {
		if entry.Name == base {
			return true, nil
		}
	}
	return false, nil
}
