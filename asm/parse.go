package asm

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

type source struct {
	Lines []*line `@@*`
}

// line: [label:] [mnemonic operand, ...] EOL
type line struct {
	Pos   lexer.Position
	Label string     `( @Ident ":" )?`
	Stmt  *statement `@@? EOL`
}

type statement struct {
	Pos      lexer.Position
	Mnemonic string     `@Ident`
	Operands []*operand `( @@ ( "," @@ )* )?`
}

// operand: [I] | number | register, keyword or label
type operand struct {
	Pos      lexer.Position
	Indirect string  `  "[" @Ident "]"`
	Number   *string `| @Number`
	Name     string  `| @Ident`
}

var asmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|0[bB][01]+|#[0-9a-fA-F]+|[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
	{Name: "Punct", Pattern: `[,:\[\]]`},
})

var parser = participle.MustBuild[source](
	participle.Lexer(asmLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)
