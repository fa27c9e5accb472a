package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Censor masks configured words in message content before it is persisted or
// fanned out. Matching runs on a lower-cased, noise-stripped projection of the
// text so spacing or punctuation tricks do not bypass the word list, while the
// replacement is applied to the original runes.
//
// A nil Censor (or one built from an empty word list) passes content through
// unchanged.
type Censor struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// projection is the normalized text plus, for every normalized rune, the index
// of the original rune it came from.
type projection struct {
	runes   []rune
	origIdx []int
}

// NewCensor compiles the word list into an Aho-Corasick automaton.
func NewCensor(words []string, replacement rune) (*Censor, error) {
	if len(words) == 0 {
		return nil, nil
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = project(word).runes
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{matcher: machine, replacement: replacement}, nil
}

// Clean returns content with every matched word replaced rune-for-rune.
func (c *Censor) Clean(content string) string {
	if c == nil || c.matcher == nil {
		return content
	}
	p := project(content)
	if len(p.runes) == 0 {
		return content
	}
	matches := c.matcher.MultiPatternSearch(p.runes, false)
	if len(matches) == 0 {
		return content
	}

	out := []rune(content)
	for _, match := range matches {
		start := match.Pos
		end := start + len(match.Word)
		if start < 0 || end > len(p.origIdx) {
			continue
		}
		for i := p.origIdx[start]; i <= p.origIdx[end-1]; i++ {
			out[i] = c.replacement
		}
	}
	return string(out)
}

func project(input string) projection {
	orig := []rune(input)
	p := projection{
		runes:   make([]rune, 0, len(orig)),
		origIdx: make([]int, 0, len(orig)),
	}
	for i, r := range orig {
		plain := deobfuscate(r)
		if unicode.IsPunct(plain) || unicode.IsSpace(plain) || unicode.IsSymbol(plain) {
			continue
		}
		p.runes = append(p.runes, unicode.ToLower(plain))
		p.origIdx = append(p.origIdx, i)
	}
	return p
}

// deobfuscate maps common leet-speak substitutions back to letters.
func deobfuscate(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
