package schematic

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// NetlistLexer tokenizes the line-oriented netlist format:
//
//	* comment
//	.title RC low-pass
//	V1 ac_source (in 0) 1 freq=1k
//	R1 resistor (in out) 1k
//	C1 capacitor (out gnd) 1u
//	U1 and_gate (a=x b=y out=z)
//	.ac dec 10 1 100k
var NetlistLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:\*|#|//)[^\n]*`},
	{Name: "EOL", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Directive", Pattern: `\.[a-zA-Z]+`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?[a-zA-ZΩµ]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*`},
	{Name: "Punct", Pattern: `[()=,]`},
})

type netlistAST struct {
	Lines []*lineAST `( @@ | EOL )*`
}

type lineAST struct {
	Directive *directiveAST `(   @@`
	Element   *elementAST   `  | @@ ) EOL?`
}

type directiveAST struct {
	Pos  lexer.Position
	Name string   `@Directive`
	Args []string `@( Ident | Number | String )*`
}

type elementAST struct {
	Pos    lexer.Position
	Name   string      `@Ident`
	Kind   string      `@Ident`
	Ports  []*portAST  `"(" ( @@ ","? )* ")"`
	Value  string      `@Number?`
	Params []*paramAST `@@*`
}

// portAST is either a bare net, bound to the next positional port, or
// port=net.
type portAST struct {
	Port string `( @Ident "=" )?`
	Net  string `@( Ident | Number )`
}

type paramAST struct {
	Key   string `@Ident "="`
	Value string `@( Number | Ident | String )`
}

// NetlistParser turns netlist text into a Schematic.
type NetlistParser struct {
	parser *participle.Parser[netlistAST]
}

func NewNetlistParser() (*NetlistParser, error) {
	parser, err := participle.Build[netlistAST](
		participle.Lexer(NetlistLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build netlist parser: %w", err)
	}
	return &NetlistParser{parser: parser}, nil
}

func (p *NetlistParser) Parse(r io.Reader) (*Schematic, error) {
	ast, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return buildSchematic(ast)
}

func (p *NetlistParser) ParseString(input string) (*Schematic, error) {
	ast, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return buildSchematic(ast)
}

// ParseNetlist parses netlist text with a freshly built parser.
func ParseNetlist(input string) (*Schematic, error) {
	p, err := NewNetlistParser()
	if err != nil {
		return nil, err
	}
	return p.ParseString(input)
}
