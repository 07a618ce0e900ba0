package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Fold lowercases text using Unicode case folding so vocabularies match
// regardless of the casing convention a pack author used.
func Fold(text string) string {
	return folder.String(text)
}

// Tokenize splits text into folded tokens on any non-alphanumeric rune.
// Empty tokens are dropped but no length filter applies: vocabulary entries
// such as "fx" and "808" must survive tokenization to match.
func Tokenize(text string) []string {
	folded := Fold(text)
	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !isAlphanumeric(r)
	})
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// CountKeyword returns how many times the keyword occurs in the token stream.
// Multi-token keywords ("drum loop") match as consecutive runs.
func CountKeyword(tokens []string, keyword string) int {
	needle := Tokenize(keyword)
	if len(needle) == 0 || len(tokens) < len(needle) {
		return 0
	}
	count := 0
	for i := 0; i+len(needle) <= len(tokens); i++ {
		matched := true
		for j, part := range needle {
			if tokens[i+j] != part {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return count
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127
}
