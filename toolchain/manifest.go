package toolchain

import (
	"bytes"

	"github.com/pelletier/go-toml"

	"pyrs/common"
)

// Manifest represents the Cargo manifest of a generated crate as it is encoded
// in TOML.
type Manifest struct {
	Package      *ManifestPackage  `toml:"package"`
	Dependencies map[string]string `toml:"dependencies"`
}

// ManifestPackage is the `[package]` table of a manifest.
type ManifestPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

// CrateDependencies are the pinned dependencies of every generated crate.
var CrateDependencies = map[string]string{
	"rayon":     "1.5",
	"ndarray":   "0.15",
	"hashbrown": "0.14",
}

// NewManifest creates the manifest of a generated crate.
func NewManifest() *Manifest {
	deps := make(map[string]string, len(CrateDependencies))
	for name, version := range CrateDependencies {
		deps[name] = version
	}

	return &Manifest{
		Package: &ManifestPackage{
			Name:    common.CrateName,
			Version: "0.1.0",
			Edition: "2021",
		},
		Dependencies: deps,
	}
}

// Encode encodes the manifest as TOML.  The package table comes first.
func (m *Manifest) Encode() ([]byte, error) {
	buff := &bytes.Buffer{}

	enc := toml.NewEncoder(buff).Order(toml.OrderPreserve).Indentation("")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}
