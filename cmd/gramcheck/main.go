/*
Gramcheck validates grammar description files and reports on the grammars they
define.

It reads each given file, builds the grammar it describes (running the full
validation pipeline), and prints a summary of the result. Files ending in
".gram" are treated as binary grammar checkpoints written by a previous run;
anything else is read as a GGD (Gecko Grammar Description) TOML file.

Usage:

	gramcheck [flags] FILE ...

The flags are:

	-v, --version
		Give the current version of gramcheck and then exit.

	-d, --dump
		Print a listing of every nonterminal definition of each valid grammar,
		in declaration order, with inferred reducers shown.

	-t, --types
		Print the assigned type of every nonterminal and the builder method
		signature table of each valid grammar, if it carries type information.

	-o, --output FILE
		Write the validated grammar to FILE as a binary checkpoint. Only
		allowed when exactly one input file is given.

	--debug
		Enable debug logging of the validation pipeline.
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dekarrin/rezi"
	"github.com/haquey/gecko-dev/grammar"
	"github.com/haquey/gecko-dev/internal/gdesc"
	"github.com/haquey/gecko-dev/internal/tracing"
	"github.com/haquey/gecko-dev/internal/version"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates an unsuccessful program execution due to
	// invalid command-line arguments.
	ExitUsageError

	// ExitLoadError indicates an unsuccessful program execution due to an
	// input file that could not be read or decoded.
	ExitLoadError

	// ExitInvalidError indicates an unsuccessful program execution due to an
	// input file whose grammar failed validation.
	ExitInvalidError
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of gramcheck and then exit.")
	flagDump    = pflag.BoolP("dump", "d", false, "Print a listing of each valid grammar.")
	flagTypes   = pflag.BoolP("types", "t", false, "Print type information of each valid grammar.")
	flagOutput  = pflag.StringP("output", "o", "", "Write the validated grammar to the given file as a binary checkpoint.")
	flagDebug   = pflag.Bool("debug", false, "Enable debug logging of the validation pipeline.")
)

var returnCode int = ExitSuccess

func main() {
	defer func() {
		os.Exit(returnCode)
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("gramcheck v%s\n", version.Current)
		return
	}

	if *flagDebug {
		tracing.SetDebugLog()
	}

	files := pflag.Args()
	if len(files) < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: no input files given; usage: gramcheck [flags] FILE ...\n")
		returnCode = ExitUsageError
		return
	}
	if *flagOutput != "" && len(files) != 1 {
		fmt.Fprintf(os.Stderr, "ERROR: --output requires exactly one input file\n")
		returnCode = ExitUsageError
		return
	}

	for _, file := range files {
		g, err := loadGrammar(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", file, err.Error())
			if _, isInvalid := grammarErr(err); isInvalid {
				returnCode = ExitInvalidError
			} else {
				returnCode = ExitLoadError
			}
			continue
		}

		fmt.Printf("%s: valid grammar: %d nonterminal(s), %d terminal(s), %d goal(s)\n",
			file, len(g.Nonterminals()), g.Terminals().Len(), len(g.Goals()))

		if *flagDump {
			fmt.Println(g.Dump())
		}
		if *flagTypes {
			typeInfo := g.DumpTypeInfo()
			if typeInfo == "" {
				fmt.Printf("%s: no type information\n", file)
			} else {
				fmt.Println(typeInfo)
			}
		}

		if *flagOutput != "" {
			if err := writeCheckpoint(g, *flagOutput); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", *flagOutput, err.Error())
				returnCode = ExitLoadError
			}
		}
	}
}

func loadGrammar(file string) (*grammar.Grammar, error) {
	if strings.HasSuffix(strings.ToLower(file), ".gram") {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		g := &grammar.Grammar{}
		if _, err := rezi.DecBinary(data, g); err != nil {
			return nil, err
		}
		return g, nil
	}

	desc, err := gdesc.LoadFile(file)
	if err != nil {
		return nil, err
	}
	return desc.Build()
}

func writeCheckpoint(g *grammar.Grammar, path string) error {
	return os.WriteFile(path, rezi.EncBinary(g), 0644)
}

// grammarErr returns the validation error inside err, if that is what it is.
func grammarErr(err error) (*grammar.Error, bool) {
	var gErr *grammar.Error
	if errors.As(err, &gErr) {
		return gErr, true
	}
	return nil, false
}
