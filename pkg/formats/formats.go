// Package formats maps format tokens onto reader and writer implementations.
//
// The token set is closed: parquet (tree), avro (row-binary), arrow
// (columnar-binary) and sqlite (relational). Every (format, role) pair
// either yields an implementation or a capability error; unknown tokens are
// rejected before any I/O.
package formats

import (
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/columnbinary"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/formats/relational"
	"github.com/ajitpratap0/hepconv/pkg/formats/rowbinary"
	"github.com/ajitpratap0/hepconv/pkg/formats/tree"
)

// All lists every known format in token order
var All = []core.Format{
	core.FormatTree,
	core.FormatRowBinary,
	core.FormatColumnBinary,
	core.FormatRelational,
}

// ParseFormat maps a token onto its format
func ParseFormat(token string) (core.Format, error) {
	for _, f := range All {
		if string(f) == token {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unknown format %q (expected one of parquet, avro, arrow, sqlite)", token).
		WithDetail("token", token)
}

// Suffix returns the format token of a path: its extension without the dot
func Suffix(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// FormatOf parses the suffix of path
func FormatOf(path string) (core.Format, error) {
	return ParseFormat(Suffix(path))
}

// ReplaceSuffix returns path with its extension replaced by suffix. A path
// without an extension gets suffix appended.
func ReplaceSuffix(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + suffix
}

// NewReader returns an unopened reader for format
func NewReader(format core.Format, opts core.Options) (core.EventReader, error) {
	switch format {
	case core.FormatTree:
		return tree.NewReader(opts), nil
	case core.FormatRelational:
		return relational.NewReader(opts), nil
	case core.FormatRowBinary, core.FormatColumnBinary:
		return nil, errors.Newf(errors.ErrorTypeCapability, "format %s cannot be used as an input", format)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown format %q", format)
	}
}

// NewWriter returns an unopened writer for format
func NewWriter(format core.Format, opts core.Options) (core.EventWriter, error) {
	switch format {
	case core.FormatRowBinary:
		return rowbinary.NewWriter(opts), nil
	case core.FormatColumnBinary:
		return columnbinary.NewWriter(opts), nil
	case core.FormatRelational:
		return relational.NewWriter(opts), nil
	case core.FormatTree:
		return nil, errors.Newf(errors.ErrorTypeCapability, "format %s cannot be used as an output", format)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown format %q", format)
	}
}

// Capability is one (format, role) pair
type Capability struct {
	Format core.Format
	Role   core.Role
}

// Supported returns every (format, role) pair with an implementation
func Supported() []Capability {
	var out []Capability
	for _, f := range All {
		if _, err := NewReader(f, core.Options{}); err == nil {
			out = append(out, Capability{Format: f, Role: core.RoleReader})
		}
		if _, err := NewWriter(f, core.Options{}); err == nil {
			out = append(out, Capability{Format: f, Role: core.RoleWriter})
		}
	}
	return out
}
