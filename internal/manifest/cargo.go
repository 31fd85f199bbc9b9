package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/shinji-kodama/release-runner/internal/model"
)

// DefaultName is the manifest file name looked for when finding the root.
const DefaultName = "Cargo.toml"

// FindRoot walks up from start until it finds a directory containing a
// file called name, and returns that directory.
func FindRoot(start, name string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find %s in %s or any parent directory", name, start)
		}
		dir = parent
	}
}

// Cargo edits the [package] version of one Cargo.toml file.
type Cargo struct {
	path string
}

// NewCargo returns an editor for the manifest at path.
func NewCargo(path string) *Cargo {
	return &Cargo{path: path}
}

// Path returns the manifest path.
func (c *Cargo) Path() string {
	return c.path
}

// BackupPath returns where the pre-edit copy is kept.
func (c *Cargo) BackupPath() string {
	return c.path + ".bak"
}

// SetVersion rewrites [package].version, keeping the previous content in
// BackupPath. The backup only exists once the edit has been verified.
//
// If the [package] table has no version key one is inserted directly under
// the header; if there is no [package] table at all, one is appended.
func (c *Cargo) SetVersion(version model.Version) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	updated := setPackageVersion(string(data), version.String())

	// Check the edit before touching the disk, so a manifest this editor
	// cannot handle (an inherited version.workspace, say) leaves neither a
	// changed file nor a stray backup behind.
	got, err := packageVersion([]byte(updated))
	if err != nil {
		return fmt.Errorf("edited manifest is not valid TOML: %w", err)
	}
	if got != version.String() {
		return fmt.Errorf("edited manifest has version %q, expected %q", got, version)
	}

	if err := os.WriteFile(c.BackupPath(), data, 0644); err != nil {
		return fmt.Errorf("back up manifest: %w", err)
	}

	if err := os.WriteFile(c.path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Restore moves the backup back over the manifest.
func (c *Cargo) Restore() error {
	if err := os.Rename(c.BackupPath(), c.path); err != nil {
		return fmt.Errorf("restore manifest backup: %w", err)
	}
	return nil
}

// Discard removes the backup once the edit has been accepted.
func (c *Cargo) Discard() error {
	err := os.Remove(c.BackupPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove manifest backup: %w", err)
	}
	return nil
}

// Version reads the current [package].version.
func (c *Cargo) Version() (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", err
	}
	return packageVersion(data)
}

// cargoManifest is the slice of Cargo.toml this package cares about.
type cargoManifest struct {
	Package struct {
		Version string `toml:"version"`
	} `toml:"package"`
}

func packageVersion(data []byte) (string, error) {
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", err
	}
	return m.Package.Version, nil
}

var (
	tableHeader = regexp.MustCompile(`^\s*\[\[?\s*([^\]]+?)\s*\]\]?`)
	versionLine = regexp.MustCompile(`^(\s*version\s*=\s*)("[^"]*"|'[^']*')(.*)$`)
)

// setPackageVersion rewrites the version value inside [package] of a
// Cargo.toml document, leaving every other line untouched.
func setPackageVersion(doc, version string) string {
	lines := strings.Split(doc, "\n")
	quoted := fmt.Sprintf("%q", version)

	inPackage := false
	headerAt := -1
	for i, line := range lines {
		if m := tableHeader.FindStringSubmatch(line); m != nil {
			if inPackage {
				break
			}
			inPackage = m[1] == "package"
			if inPackage {
				headerAt = i
			}
			continue
		}
		if !inPackage {
			continue
		}
		if m := versionLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + quoted + m[3]
			return strings.Join(lines, "\n")
		}
	}

	if headerAt >= 0 {
		insert := "version = " + quoted
		lines = append(lines[:headerAt+1], append([]string{insert}, lines[headerAt+1:]...)...)
		return strings.Join(lines, "\n")
	}

	suffix := "[package]\nversion = " + quoted + "\n"
	if doc != "" && !strings.HasSuffix(doc, "\n") {
		suffix = "\n" + suffix
	}
	return doc + suffix
}
