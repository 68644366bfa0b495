package grammar

import (
	"github.com/alecthomas/participle/v2"
)

// BuildParser constructs the participle parser for analyzer scripts.
func BuildParser() (*participle.Parser[Script], error) {
	return participle.Build[Script](
		participle.Lexer(ShikiLexer),
		participle.Elide("Whitespace", "Comment"),
		// lookahead disambiguates calls from bare identifiers
		participle.UseLookahead(2),
	)
}

// ParseScript parses a whole script.
func ParseScript(filename, source string) (*Script, error) {
	parser, err := BuildParser()
	if err != nil {
		return nil, err
	}
	return parser.ParseString(filename, source)
}

// ParseExpr parses a single expression, as entered at the REPL.
func ParseExpr(filename, source string) (*OrExpr, error) {
	parser, err := participle.Build[OrExpr](
		participle.Lexer(ShikiLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, err
	}
	return parser.ParseString(filename, source)
}
