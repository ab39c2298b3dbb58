package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SynthesizeTitle turns a repository name such as "Fruit_Jam_Snake_Game" into
// a display title ("Snake Game"). prefix is stripped case-insensitively, with
// '_', '-' and ' ' treated as the same separator.
func SynthesizeTitle(repo string, prefix string) string {
	name := strings.TrimSpace(repo)

	words := titleWords(stripTitlePrefix(name, prefix))
	if len(words) == 0 {
		words = titleWords(name)
	}
	if len(words) == 0 {
		return name
	}

	caser := cases.Title(language.English, cases.NoLower)
	for i, word := range words {
		words[i] = caser.String(word)
	}
	return strings.Join(words, " ")
}

func stripTitlePrefix(name, prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || len(name) < len(prefix) {
		return name
	}
	if strings.EqualFold(normalizeSeparators(name[:len(prefix)]), normalizeSeparators(prefix)) {
		return name[len(prefix):]
	}
	return name
}

func normalizeSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}

func titleWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
}
