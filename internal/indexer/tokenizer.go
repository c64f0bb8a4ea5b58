package indexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/prana/internal/config"
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer splits text into token pieces. Concatenating the pieces must give back the input.
type Tokenizer interface {
	Tokenize(text string) []string
	Name() string
}

// NewTokenizer returns the tokenizer registered under name.
func NewTokenizer(name string) (Tokenizer, error) {
	switch name {
	case config.TokenizerProxy, "":
		return ProxyTokenizer{}, nil
	case config.TokenizerTiktoken:
		return NewTiktokenTokenizer("cl100k_base")
	default:
		return nil, fmt.Errorf("%w: unknown tokenizer %q", config.ErrConfiguration, name)
	}
}

const (
	maxLetterRunes = 6
	maxDigitRunes  = 3
)

// ProxyTokenizer approximates BPE token counts without a vocabulary. Letter runs are
// cut every few runes, digits in groups of three, punctuation one rune at a time, and
// a single space is attached to the unit that follows it.
type ProxyTokenizer struct{}

// Name returns "proxy".
func (ProxyTokenizer) Name() string { return config.TokenizerProxy }

// Tokenize splits text at byte offsets so invalid UTF-8 survives the round trip.
func (ProxyTokenizer) Tokenize(text string) []string {
	var tokens []string
	i := 0
	for i < len(text) {
		start := i
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == ' ' && i+size < len(text) {
			next, nsize := utf8.DecodeRuneInString(text[i+size:])
			if !unicode.IsSpace(next) {
				i += size
				r, size = next, nsize
			}
		}
		switch runeClass(r) {
		case classSpace:
			j := i
			for j < len(text) {
				c, s := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(c) {
					break
				}
				j += s
			}
			// leave one trailing space for the next word
			if j < len(text) && j-i > 1 && text[j-1] == ' ' {
				j--
			}
			i = j
		case classLetter:
			i = scanRun(text, i, classLetter, maxLetterRunes)
		case classDigit:
			i = scanRun(text, i, classDigit, maxDigitRunes)
		default:
			i += size
		}
		tokens = append(tokens, text[start:i])
	}
	return tokens
}

type class int

const (
	classOther class = iota
	classSpace
	classLetter
	classDigit
)

func runeClass(r rune) class {
	switch {
	case r == utf8.RuneError:
		return classOther
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r), unicode.IsMark(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	default:
		return classOther
	}
}

func scanRun(text string, i int, c class, max int) int {
	for n := 0; i < len(text) && n < max; n++ {
		r, size := utf8.DecodeRuneInString(text[i:])
		if runeClass(r) != c {
			break
		}
		i += size
	}
	return i
}

// TiktokenTokenizer uses a real BPE encoding, so counts match what the model sees.
type TiktokenTokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding (e.g. "cl100k_base").
// The first load may download the BPE ranks unless an offline loader is configured.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %s: %w", encoding, err)
	}
	return &TiktokenTokenizer{encoding: encoding, enc: enc}, nil
}

// Name returns "tiktoken".
func (t *TiktokenTokenizer) Name() string { return config.TokenizerTiktoken }

// Tokenize decodes each token id on its own. A multi-byte rune split across ids
// comes back as partial bytes, which still concatenate to the original text.
func (t *TiktokenTokenizer) Tokenize(text string) []string {
	ids := t.enc.Encode(text, nil, nil)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.enc.Decode([]int{id})
	}
	return out
}
