// Package gdesc has functions for loading grammar declarations from the GGD
// (Gecko Grammar Description) file format, a TOML-based format for writing a
// grammar down in a file instead of constructing it in code.
package gdesc

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/haquey/gecko-dev/grammar"
)

// Description is the loaded content of a GGD file: the nonterminal
// declarations and construction options it describes, in file order, ready to
// be handed to grammar.New.
type Description struct {
	Decls []grammar.Decl
	Opts  grammar.Options
}

// Build validates the loaded description and constructs a Grammar from it.
func (d Description) Build() (*grammar.Grammar, error) {
	return grammar.New(d.Decls, d.Opts)
}

// FileInfo contains the essential information all GGD files must contain.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// LoadFile loads a grammar description from a GGD file.
func LoadFile(path string) (Description, error) {
	data, loadErr := os.ReadFile(path)
	if loadErr != nil {
		return Description{}, loadErr
	}

	desc, err := Parse(data)
	if err != nil {
		return Description{}, fmt.Errorf("%q: %w", path, err)
	}
	return desc, nil
}

// Parse decodes the bytes of a GGD file into a Description. Declarations keep
// the order they have in the file, so building the same file twice always
// produces the same grammar.
func Parse(data []byte) (Description, error) {
	var top topLevel
	meta, err := toml.Decode(string(data), &top)
	if err != nil {
		return Description{}, err
	}

	if strings.ToUpper(top.Format) != "GGD" {
		return Description{}, fmt.Errorf("file does not have a 'format = \"GGD\"' entry")
	}
	if strings.ToUpper(top.Type) != "GRAMMAR" {
		return Description{}, fmt.Errorf("unsupported file type %q; only \"GRAMMAR\" is supported", top.Type)
	}

	return parseDescription(top, meta)
}
