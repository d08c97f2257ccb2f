package grammar

import (
	"fmt"
	"testing"

	"github.com/haquey/gecko-dev/internal/ordered"
	"github.com/haquey/gecko-dev/types"
	"github.com/stretchr/testify/assert"
)

func Test_New_minimalGrammar(t *testing.T) {
	assert := assert.New(t)

	decls := []Decl{
		{Key: Symbol("expr"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("NUM")}},
		}}},
	}

	g, err := New(decls, Options{
		Goals:             []NtKey{Symbol("expr")},
		VariableTerminals: []string{"NUM"},
	})
	if !assert.NoError(err) {
		return
	}

	// the declared nonterminal plus one synthesized init nonterminal
	assert.Len(g.Nonterminals(), 2)
	assert.True(g.IsNt("expr"))
	assert.False(g.IsNt("NUM"))

	assert.True(g.Terminals().Has(Symbol("NUM")))
	assert.True(g.Terminals().Has(g.Intern(End{})))
	assert.True(g.IsVariableTerminal(Symbol("NUM")))

	// the bare production got the pass-through default reducer
	def, ok := g.Def(Symbol("expr"))
	if assert.True(ok) {
		assert.Len(def.Rhs, 1)
		assert.True(reduceExprsEqual(Index(0), def.Rhs[0].Reducer))
	}

	// one init nonterminal wrapping the goal
	if assert.Len(g.InitNts(), 1) {
		init := g.InitNts()[0]
		if assert.NotNil(init.Init) {
			assert.Equal("expr", init.Init.Goal.Name)
		}

		initDef, ok := g.Def(init.Init)
		if assert.True(ok) {
			assert.Len(initDef.Rhs, 2)
			assert.True(initDef.Rhs[0].Equal(Production{
				Body: []Element{init.Init.Goal}, Reducer: Index(0),
			}))
			assert.True(initDef.Rhs[1].Equal(Production{
				Body: []Element{init, End{}}, Reducer: Accept,
			}))
			if assert.NotNil(initDef.Type) {
				assert.True(initDef.Type.Equal(types.NoReturn))
			}
		}
	}

	if assert.Len(g.Goals(), 1) {
		assert.Equal("expr", g.Goals()[0].Name)
	}
}

func Test_New_defaultFirstGoal(t *testing.T) {
	assert := assert.New(t)

	decls := []Decl{
		{Key: Symbol("stmt"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("expr"), Symbol(";")}},
		}}},
		{Key: Symbol("expr"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("NUM")}},
		}}},
	}

	g, err := New(decls, Options{VariableTerminals: []string{"NUM"}})
	if !assert.NoError(err) {
		return
	}

	if assert.Len(g.Goals(), 1) {
		assert.Equal("stmt", g.Goals()[0].Name)
	}
}

func Test_New_deterministic(t *testing.T) {
	assert := assert.New(t)

	build := func() (*Grammar, error) {
		return New([]Decl{
			{Key: Symbol("expr"), Def: NtDef{Rhs: []Production{
				{Body: []Element{Symbol("expr"), Symbol("+"), Symbol("term")}},
				{Body: []Element{Symbol("term")}},
			}}},
			{Key: Symbol("term"), Def: NtDef{Rhs: []Production{
				{Body: []Element{Symbol("NUM")}},
				{Body: []Element{Symbol("("), Symbol("expr"), Symbol(")")}},
			}}},
		}, Options{
			Goals:             []NtKey{Symbol("expr")},
			VariableTerminals: []string{"NUM"},
		})
	}

	g1, err := build()
	if !assert.NoError(err) {
		return
	}
	g2, err := build()
	if !assert.NoError(err) {
		return
	}

	assert.Equal(g1.Dump(), g2.Dump())
	assert.True(g1.Terminals().Equal(g2.Terminals()))
	assert.Equal(len(g1.Nonterminals()), len(g2.Nonterminals()))
}

func Test_New_defaultReducerInference(t *testing.T) {
	testCases := []struct {
		name   string
		rhs    []Production
		expect []ReduceExpr
	}{
		{
			name: "single concrete element passes through",
			rhs: []Production{
				{Body: []Element{Symbol("NUM")}},
			},
			expect: []ReduceExpr{Index(0)},
		},
		{
			name: "sole production with several elements calls the plain name",
			rhs: []Production{
				{Body: []Element{Symbol("("), Symbol("NUM"), Symbol(")")}},
			},
			expect: []ReduceExpr{
				&CallMethod{Method: "thing", Args: []ReduceExpr{Index(0), Index(1), Index(2)}},
			},
		},
		{
			name: "multiple productions get indexed method names",
			rhs: []Production{
				{Body: []Element{Symbol("NUM"), Symbol("NUM")}},
				{Body: []Element{Symbol("-"), Symbol("NUM")}},
			},
			expect: []ReduceExpr{
				&CallMethod{Method: "thing_0", Args: []ReduceExpr{Index(0), Index(1)}},
				&CallMethod{Method: "thing_1", Args: []ReduceExpr{Index(0), Index(1)}},
			},
		},
		{
			name: "declared reducers are left alone",
			rhs: []Production{
				{Body: []Element{Symbol("NUM")}, Reducer: &CallMethod{Method: "num"}},
			},
			expect: []ReduceExpr{&CallMethod{Method: "num"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g, err := New([]Decl{
				{Key: Symbol("thing"), Def: NtDef{Rhs: tc.rhs}},
			}, Options{VariableTerminals: []string{"NUM"}})
			if !assert.NoError(err) {
				return
			}

			def, ok := g.Def(Symbol("thing"))
			if !assert.True(ok) {
				return
			}
			if !assert.Len(def.Rhs, len(tc.expect)) {
				return
			}
			for i := range tc.expect {
				assert.True(reduceExprsEqual(tc.expect[i], def.Rhs[i].Reducer),
					"production %d: got reducer %s", i, ExprString(def.Rhs[i].Reducer))
			}
		})
	}
}

// a lookahead restriction occupies a body slot but carries no value, so
// default reducers must skip it when counting and when numbering elements
func Test_New_defaultReducerSkipsNonConcrete(t *testing.T) {
	assert := assert.New(t)

	g, err := New([]Decl{
		{Key: Symbol("thing"), Def: NtDef{Rhs: []Production{
			{Body: []Element{
				&LookaheadRule{Set: ordered.Frozen("else"), Positive: false},
				Symbol("NUM"),
			}},
		}}},
	}, Options{VariableTerminals: []string{"NUM"}})
	if !assert.NoError(err) {
		return
	}

	def, _ := g.Def(Symbol("thing"))
	assert.True(reduceExprsEqual(
		&CallMethod{Method: "thing", Args: []ReduceExpr{Index(0)}},
		def.Rhs[0].Reducer,
	))
}

func Test_New_parameterizedNonterminals(t *testing.T) {
	assert := assert.New(t)

	decls := []Decl{
		{Key: Symbol("script"), Def: NtDef{Rhs: []Production{
			{Body: []Element{&Nt{Name: "stmt", Args: []NtArg{{Param: "In", Value: ArgBool(true)}}}}},
		}}},
		{Key: Symbol("stmt"), Def: NtDef{
			Params: []string{"In"},
			Rhs: []Production{
				{
					Body:    []Element{Symbol("NUM"), Symbol(";")},
					Reducer: &CallMethod{Method: "expr_stmt", Args: []ReduceExpr{Index(0)}},
				},
				{
					Body: []Element{
						Symbol("for"),
						&Nt{Name: "stmt", Args: []NtArg{{Param: "In", Value: ArgBool(false)}}},
					},
					Reducer:   &CallMethod{Method: "for_stmt", Args: []ReduceExpr{Index(1)}},
					Condition: &Condition{Param: "In", Value: true},
				},
				{
					Body: []Element{
						Symbol("do"),
						&Nt{Name: "stmt", Args: []NtArg{{Param: "In", Value: Var{Name: "In"}}}},
					},
					Reducer: &CallMethod{Method: "do_stmt", Args: []ReduceExpr{Index(1)}},
				},
			},
		}},
	}

	g, err := New(decls, Options{
		Goals:             []NtKey{Symbol("script")},
		VariableTerminals: []string{"NUM"},
	})
	if !assert.NoError(err) {
		return
	}

	def, ok := g.Def(Symbol("stmt"))
	if assert.True(ok) {
		assert.Equal([]string{"In"}, def.Params)
		if assert.NotNil(def.Rhs[1].Condition) {
			assert.Equal("+In", def.Rhs[1].Condition.String())
		}
	}
}

func Test_New_errors(t *testing.T) {
	testCases := []struct {
		name       string
		decls      []Decl
		opts       Options
		expectCode ErrCode
	}{
		{
			name:       "no declarations",
			decls:      nil,
			expectCode: ErrMalformedInput,
		},
		{
			name: "nonterminal declared twice",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("y")}}}}},
			},
			expectCode: ErrNameCollision,
		},
		{
			name: "nonterminal name is not an identifier",
			decls: []Decl{
				{Key: Symbol("not valid"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
			},
			expectCode: ErrMalformedInput,
		},
		{
			name: "mixed key conventions",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
				{Key: &Nt{Name: "b"}, Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("y")}}}}},
			},
			expectCode: ErrMalformedInput,
		},
		{
			name: "nonterminal collides with variable terminal",
			decls: []Decl{
				{Key: Symbol("NUM"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
			},
			opts:       Options{VariableTerminals: []string{"NUM"}},
			expectCode: ErrNameCollision,
		},
		{
			name: "nonterminal collides with synthetic terminal",
			decls: []Decl{
				{Key: Symbol("Keyword"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
			},
			opts: Options{SyntheticTerminals: []SyntheticTerminal{
				{Name: "Keyword", Terminals: []string{"if", "else"}},
			}},
			expectCode: ErrNameCollision,
		},
		{
			name: "synthetic terminal includes another synthetic terminal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
			},
			opts: Options{SyntheticTerminals: []SyntheticTerminal{
				{Name: "Keyword", Terminals: []string{"if", "else"}},
				{Name: "Token", Terminals: []string{"Keyword", "NUM"}},
			}},
			expectCode: ErrUnsupported,
		},
		{
			name: "goal is not a defined nonterminal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{{Body: []Element{Symbol("x")}}}}},
			},
			opts:       Options{Goals: []NtKey{Symbol("missing")}},
			expectCode: ErrUnresolvedGoal,
		},
		{
			name: "invocation of an undefined nonterminal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{&Nt{Name: "missing"}}},
				}}},
			},
			expectCode: ErrUndefinedRef,
		},
		{
			name: "bare name of a parameterized nonterminal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("b")}},
				}}},
				{Key: Symbol("b"), Def: NtDef{
					Params: []string{"Yield"},
					Rhs:    []Production{{Body: []Element{Symbol("x")}}},
				}},
			},
			expectCode: ErrParamMismatch,
		},
		{
			name: "invocation with the wrong argument names",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{&Nt{Name: "b", Args: []NtArg{{Param: "Await", Value: ArgBool(true)}}}}},
				}}},
				{Key: Symbol("b"), Def: NtDef{
					Params: []string{"Yield"},
					Rhs:    []Production{{Body: []Element{Symbol("x")}}},
				}},
			},
			expectCode: ErrParamMismatch,
		},
		{
			name: "forwarded variable names no parameter of the enclosing nonterminal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{&Nt{Name: "b", Args: []NtArg{{Param: "Yield", Value: Var{Name: "Yield"}}}}}},
				}}},
				{Key: Symbol("b"), Def: NtDef{
					Params: []string{"Yield"},
					Rhs:    []Production{{Body: []Element{Symbol("x")}}},
				}},
			},
			expectCode: ErrUndefinedRef,
		},
		{
			name: "condition names no parameter",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("x")}, Condition: &Condition{Param: "In", Value: true}},
				}}},
			},
			expectCode: ErrUndefinedRef,
		},
		{
			name: "reducer element number out of range",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("x"), Symbol("y")}, Reducer: Index(5)},
				}}},
			},
			expectCode: ErrReducerArity,
		},
		{
			name: "reducer element number counts only concrete elements",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{
						Body: []Element{
							&LookaheadRule{Set: ordered.Frozen("y"), Positive: false},
							Symbol("x"),
						},
						Reducer: Index(1),
					},
				}}},
			},
			expectCode: ErrReducerArity,
		},
		{
			name: "reducer method name is not an identifier",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("x")}, Reducer: &CallMethod{Method: "not-valid"}},
				}}},
			},
			expectCode: ErrReducerArity,
		},
		{
			name: "accept sentinel outside an init nonterminal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("x")}, Reducer: Accept},
				}}},
			},
			expectCode: ErrReducerArity,
		},
		{
			name: "accept sentinel nested in a reduce expression",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("x")}, Reducer: &CallMethod{Method: "m", Args: []ReduceExpr{Accept}}},
				}}},
			},
			expectCode: ErrReducerArity,
		},
		{
			name: "optional of a literal",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{&Optional{Inner: Literal{Text: "x"}}}},
				}}},
			},
			expectCode: ErrUnknownElement,
		},
		{
			name: "lookahead rule with no terminal set",
			decls: []Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{&LookaheadRule{Positive: true}, Symbol("x")}},
				}}},
			},
			expectCode: ErrMalformedInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := New(tc.decls, tc.opts)
			if !assert.Error(err) {
				return
			}

			gErr, ok := err.(*Error)
			if !assert.True(ok, "got non-grammar error %v", err) {
				return
			}
			assert.Equal(tc.expectCode, gErr.Code, "got error %q", gErr.Error())
		})
	}
}

func Test_New_methodNames(t *testing.T) {
	testCases := []struct {
		name      string
		method    string
		expectErr bool
	}{
		{name: "plain identifier", method: "expr_stmt"},
		{name: "identifier with numeric suffix", method: "cover_parenthesized 1"},
		{name: "dashes rejected", method: "expr-stmt", expectErr: true},
		{name: "leading digit rejected", method: "1expr", expectErr: true},
		{name: "suffix must be numeric", method: "expr one", expectErr: true},
		{name: "empty rejected", method: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := New([]Decl{
				{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
					{Body: []Element{Symbol("x")}, Reducer: &CallMethod{Method: tc.method, Args: []ReduceExpr{Index(0)}}},
				}}},
			}, Options{})

			if tc.expectErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_New_syntheticTerminals(t *testing.T) {
	assert := assert.New(t)

	g, err := New([]Decl{
		{Key: Symbol("name"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("IdentifierName")}},
		}}},
	}, Options{
		VariableTerminals: []string{"Identifier"},
		SyntheticTerminals: []SyntheticTerminal{
			{Name: "IdentifierName", Terminals: []string{"Identifier", "if", "else"}},
		},
	})
	if !assert.NoError(err) {
		return
	}

	// the synthetic name is shorthand, so the alphabet holds its expansion
	// instead of it
	assert.False(g.Terminals().Has(Symbol("IdentifierName")))
	assert.True(g.Terminals().Has(Symbol("Identifier")))
	assert.True(g.Terminals().Has(Symbol("if")))
	assert.True(g.Terminals().Has(Symbol("else")))

	assert.Equal([]string{"IdentifierName"}, g.SyntheticTerminals())
	expansion, ok := g.SyntheticExpansion("IdentifierName")
	if assert.True(ok) {
		assert.True(expansion.Equal(ordered.Frozen("Identifier", "if", "else")))
	}
}

func Test_New_internIdentity(t *testing.T) {
	assert := assert.New(t)

	g, err := New([]Decl{
		{Key: Symbol("a"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("b"), &Optional{Inner: Symbol("b")}}},
			{Body: []Element{&Optional{Inner: Symbol("b")}, Symbol("b")}},
		}}},
		{Key: Symbol("b"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("x")}},
		}}},
	}, Options{})
	if !assert.NoError(err) {
		return
	}

	def, _ := g.Def(Symbol("a"))

	// equal elements in different productions canonicalize to one pointer
	assert.Same(def.Rhs[0].Body[0], def.Rhs[1].Body[1])
	assert.Same(def.Rhs[0].Body[1], def.Rhs[1].Body[0])

	// and Intern finds the same pointer again
	assert.Same(def.Rhs[0].Body[0], g.Intern(&Nt{Name: "b"}))
}

func Test_New_typeInference(t *testing.T) {
	assert := assert.New(t)

	infer := func(g *Grammar) (map[NtKey]types.Type, map[string]types.MethodType, error) {
		ntTypes := map[NtKey]types.Type{}
		for _, key := range g.Nonterminals() {
			ntTypes[key] = types.NewType("Expr")
		}
		methods := map[string]types.MethodType{
			"expr": {ArgumentTypes: []types.Type{types.Token}, ReturnType: types.NewType("Expr")},
		}
		return ntTypes, methods, nil
	}

	g, err := New([]Decl{
		{Key: Symbol("expr"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("NUM"), Symbol("NUM")}},
		}}},
	}, Options{
		VariableTerminals: []string{"NUM"},
		TypeInfer:         infer,
	})
	if !assert.NoError(err) {
		return
	}

	def, _ := g.Def(Symbol("expr"))
	if assert.NotNil(def.Type) {
		assert.True(def.Type.Equal(types.NewType("Expr")))
	}

	// init nonterminals are synthesized after inference and typed NoReturn
	initDef, ok := g.Def(g.InitNts()[0].Init)
	if assert.True(ok) && assert.NotNil(initDef.Type) {
		assert.True(initDef.Type.Equal(types.NoReturn))
	}

	methods := g.Methods()
	if assert.NotNil(methods) {
		assert.Contains(methods, "expr")
	}
}

func Test_New_typeInferenceErrors(t *testing.T) {
	assert := assert.New(t)

	decls := []Decl{
		{Key: Symbol("expr"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("x")}},
		}}},
	}

	// hook errors come back to the caller unchanged
	sentinel := fmt.Errorf("types do not unify")
	_, err := New(decls, Options{
		TypeInfer: func(g *Grammar) (map[NtKey]types.Type, map[string]types.MethodType, error) {
			return nil, nil, sentinel
		},
	})
	assert.ErrorIs(err, sentinel)

	// a hook that skips a nonterminal fails construction
	_, err = New(decls, Options{
		TypeInfer: func(g *Grammar) (map[NtKey]types.Type, map[string]types.MethodType, error) {
			return map[NtKey]types.Type{}, nil, nil
		},
	})
	if assert.Error(err) {
		gErr, ok := err.(*Error)
		if assert.True(ok) {
			assert.Equal(ErrMalformedInput, gErr.Code)
		}
	}
}

func Test_New_precalculatedMethodTypes(t *testing.T) {
	assert := assert.New(t)

	exprTy := types.NewType("Expr")
	methods := map[string]types.MethodType{
		"expr": {ArgumentTypes: []types.Type{types.Token}, ReturnType: exprTy},
	}

	g, err := New([]Decl{
		{Key: Symbol("expr"), Def: NtDef{
			Rhs:  []Production{{Body: []Element{Symbol("NUM")}}},
			Type: &exprTy,
		}},
	}, Options{
		VariableTerminals: []string{"NUM"},
		MethodTypes:       methods,
	})
	if !assert.NoError(err) {
		return
	}
	assert.Contains(g.Methods(), "expr")

	// precalculated info requires every nonterminal to already carry a type
	_, err = New([]Decl{
		{Key: Symbol("expr"), Def: NtDef{
			Rhs: []Production{{Body: []Element{Symbol("NUM")}}},
		}},
	}, Options{
		VariableTerminals: []string{"NUM"},
		MethodTypes:       methods,
	})
	if assert.Error(err) {
		gErr, ok := err.(*Error)
		if assert.True(ok) {
			assert.Equal(ErrMalformedInput, gErr.Code)
		}
	}
}

func Test_New_multipleGoals(t *testing.T) {
	assert := assert.New(t)

	g, err := New([]Decl{
		{Key: Symbol("script"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("stmt")}},
		}}},
		{Key: Symbol("module"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("stmt")}},
		}}},
		{Key: Symbol("stmt"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("x"), Symbol(";")}},
		}}},
	}, Options{
		Goals: []NtKey{Symbol("script"), Symbol("module")},
	})
	if !assert.NoError(err) {
		return
	}

	assert.Len(g.InitNts(), 2)
	if assert.Len(g.Goals(), 2) {
		assert.Equal("script", g.Goals()[0].Name)
		assert.Equal("module", g.Goals()[1].Name)
	}

	// both init defs were synthesized and appended after the declarations
	keys := g.Nonterminals()
	assert.Len(keys, 5)
}
