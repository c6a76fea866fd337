// Package surface is the reference concrete syntax for the language
// internal/ast describes: a participle grammar producing *ast.Program
// from source text, used by the CLI and by the test suite to drive the
// oracle programs of spec §8 from literal source rather than
// hand-built ASTs.
//
// Grounded on grammar/lexer.go, grammar/parser.go and grammar/shared.go
// (kanso's own participle grammar): a single stateful lexer, keywords
// matched as literal text over the Ident token the way kanso matches
// "module"/"struct"/"fun", and a participle.Build[Program] parser with
// backtracking lookahead.
package surface

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes surface source. Float precedes Int so "1.5" isn't
// split into two tokens; the multi-character operators are listed
// before their single-character prefixes for the same reason.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Int", `[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Operator", `(\|\||&&|==|!=|<=|>=|[-+*/<>=.,;(){}!])`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
