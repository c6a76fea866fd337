package surface

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"

	"devicemips/internal/ast"
	"devicemips/internal/diag"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// Parse parses src (labeled filename for error messages) into an AST.
// A syntax error is reported as a diag.Error of kind ParseError, per
// spec §7.
func Parse(filename, src string) (*ast.Program, error) {
	prog, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, diag.New(diag.ParseError, "failed to parse source", err.Error())
	}
	return toAST(prog), nil
}

// ParseFile reads path and parses it.
func ParseFile(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	return Parse(path, string(data))
}
