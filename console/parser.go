package console

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_WORD = iota
	TOKEN_NUMBER
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`[\+\-]?[0-9]*\.?[0-9]+`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`(\n|\r|\n\r)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`//[^\n]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte(`( |\t)+`), skip)
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// Parse reads one command per line. Empty and comment-only lines are skipped.
func Parse(text []byte) ([]*Command, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	result := make([]*Command, 0, 4)

	var current *Command
	finish := func() error {
		if current == nil {
			return nil
		}
		err := current.validate()
		current = nil
		return err
	}

	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := Itok.(*lexmachine.Token)

		switch tok.Type {
		case TOKEN_WORD:
			if current != nil {
				return nil, errors.Errorf("Multiple commands on line %v (%q)", tok.StartLine, tok.Lexeme)
			}
			current = &Command{Name: strings.ToLower(string(tok.Lexeme)), Line: tok.StartLine}
			result = append(result, current)
		case TOKEN_NUMBER:
			if current == nil {
				return nil, errors.Errorf("Missed command on line %v (%q)", tok.StartLine, tok.Lexeme)
			}
			value, err := strconv.ParseFloat(string(tok.Lexeme), 64)
			if err != nil {
				return nil, errors.Errorf("Unknown number format on line %v (%q)", tok.StartLine, tok.Lexeme)
			}
			current.Args = append(current.Args, value)
		case TOKEN_NEWLINE:
			if err := finish(); err != nil {
				return nil, err
			}
		case TOKEN_COMMENT:
			if current != nil {
				current.Comment = strings.TrimSpace(string(tok.Lexeme[2:]))
			}
		}
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return result, nil
}

func ParseCommands(text string) ([]*Command, error) {
	return Parse([]byte(text))
}
