package gdesc

// This file contains the structs that TOML data is directly unmarshaled into.
// They are converted into the typeful grammar declarations by parse.go.

type topLevel struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`

	Grammar      grammarSection               `toml:"grammar"`
	Synthetic    map[string]syntheticSection  `toml:"synthetic"`
	Nonterminals map[string]nonterminalSection `toml:"nonterminals"`
}

type grammarSection struct {
	Goals             []string `toml:"goals"`
	VariableTerminals []string `toml:"variable_terminals"`
}

type syntheticSection struct {
	Terminals []string `toml:"terminals"`
}

type nonterminalSection struct {
	Params      []string            `toml:"params"`
	Productions []productionSection `toml:"productions"`
}

type productionSection struct {
	Body    []string `toml:"body"`
	Reducer string   `toml:"reducer"`
	If      string   `toml:"if"`
}
