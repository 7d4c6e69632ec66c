package querysparql

import "strings"

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeLiteral escapes s for use inside a single-quoted SPARQL string
// literal (STRING_LITERAL1). Backslash, single quote, newline, carriage
// return and tab are escaped; everything else passes through.
func EscapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// QuoteLiteral returns s as a single-quoted, escaped SPARQL literal.
func QuoteLiteral(s string) string {
	return "'" + EscapeLiteral(s) + "'"
}
