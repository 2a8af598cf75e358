package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dshills/schemaprobe/pkg/types"
)

var (
	// ErrSyntax is returned for malformed commands
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupported is returned for statements the probe cannot execute
	ErrUnsupported = errors.New("unsupported statement")
)

// System columns backing the @rid and @class record attributes
const (
	RIDColumn   = "_rid"
	ClassColumn = "_class"
)

// Statement is a parsed command
type Statement interface {
	statement()
}

// CreateClass is CREATE CLASS <name> [EXTENDS <super>] [CLUSTERS <n>]
type CreateClass struct {
	Name       string
	SuperClass string
	Clusters   int // Zero when not given
}

// CreateProperty is CREATE PROPERTY <class>.<name> <type> [UNSAFE]
type CreateProperty struct {
	Class  string
	Name   string
	Type   types.PropertyType
	Unsafe bool
}

// Select is a read query; Text is the query as written
type Select struct {
	Text string
}

func (*CreateClass) statement() {}
func (*CreateProperty) statement() {}
func (*Select) statement() {}

// Parse parses a single command
func Parse(text string) (Statement, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrSyntax)
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT":
		return &Select{Text: text}, nil
	case "CREATE":
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: expected CLASS or PROPERTY after CREATE", ErrSyntax)
		}
		switch strings.ToUpper(fields[1]) {
		case "CLASS":
			return parseCreateClass(fields[2:])
		case "PROPERTY":
			return parseCreateProperty(fields[2:])
		}
		return nil, fmt.Errorf("%w: CREATE %s", ErrUnsupported, fields[1])
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, fields[0])
}

func parseCreateClass(args []string) (*CreateClass, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: expected class name", ErrSyntax)
	}
	stmt := &CreateClass{Name: args[0]}
	if err := types.ValidateIdentifier(stmt.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	for i := 1; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return nil, fmt.Errorf("%w: missing value after %s", ErrSyntax, args[i])
		}
		value := args[i+1]
		switch strings.ToUpper(args[i]) {
		case "EXTENDS":
			if err := types.ValidateIdentifier(value); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			stmt.SuperClass = value
		case "CLUSTERS":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%w: invalid cluster count %q", ErrSyntax, value)
			}
			stmt.Clusters = n
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, args[i])
		}
	}
	return stmt, nil
}

func parseCreateProperty(args []string) (*CreateProperty, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: expected <class>.<property> <type>", ErrSyntax)
	}
	class, name, ok := strings.Cut(args[0], ".")
	if !ok {
		return nil, fmt.Errorf("%w: property name %q is not qualified", ErrSyntax, args[0])
	}
	for _, ident := range []string{class, name} {
		if err := types.ValidateIdentifier(ident); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
	}
	pt, err := types.ParsePropertyType(args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	stmt := &CreateProperty{Class: class, Name: name, Type: pt}
	for _, opt := range args[2:] {
		if !strings.EqualFold(opt, "UNSAFE") {
			return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, opt)
		}
		stmt.Unsafe = true
	}
	return stmt, nil
}

// String renders the statement back into command syntax
func (s *CreateProperty) String() string {
	out := fmt.Sprintf("CREATE PROPERTY %s %s", types.QualifiedName(s.Class, s.Name), s.Type)
	if s.Unsafe {
		out += " UNSAFE"
	}
	return out
}

// String renders the statement back into command syntax
func (s *CreateClass) String() string {
	out := "CREATE CLASS " + s.Name
	if s.SuperClass != "" {
		out += " EXTENDS " + s.SuperClass
	}
	if s.Clusters > 0 {
		out += " CLUSTERS " + strconv.Itoa(s.Clusters)
	}
	return out
}

// Rewrite translates the select into backend SQL: record attributes become
// system columns and the FROM target is quoted with quote.
// String literals are copied unchanged.
func (s *Select) Rewrite(quote func(string) string) (string, error) {
	src := []rune(s.Text)
	var (
		out       strings.Builder
		quoteRun  rune
		afterFrom bool
	)

	for i := 0; i < len(src); i++ {
		c := src[i]

		if quoteRun != 0 {
			out.WriteRune(c)
			if c == quoteRun {
				// Doubled quote is an escaped quote inside the literal
				if i+1 < len(src) && src[i+1] == quoteRun {
					out.WriteRune(src[i+1])
					i++
					continue
				}
				quoteRun = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quoteRun = c
			afterFrom = false
			out.WriteRune(c)
		case c == '@':
			j := i + 1
			for j < len(src) && isIdentRune(src[j]) {
				j++
			}
			attr := strings.ToLower(string(src[i+1 : j]))
			switch attr {
			case "rid":
				out.WriteString(quote(RIDColumn))
			case "class":
				out.WriteString(quote(ClassColumn))
			default:
				return "", fmt.Errorf("%w: record attribute @%s", ErrUnsupported, attr)
			}
			i = j - 1
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentRune(src[j]) {
				j++
			}
			word := string(src[i:j])
			if afterFrom {
				out.WriteString(quote(word))
				afterFrom = false
			} else {
				out.WriteString(word)
				afterFrom = strings.EqualFold(word, "FROM")
			}
			i = j - 1
		default:
			if !unicode.IsSpace(c) {
				afterFrom = false
			}
			out.WriteRune(c)
		}
	}

	if quoteRun != 0 {
		return "", fmt.Errorf("%w: unterminated literal", ErrSyntax)
	}
	return out.String(), nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
