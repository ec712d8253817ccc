// Package braille translates between Spanish text and Unicode Braille (ONCE signography).
package braille

import (
	"strings"
	"unicode"
)

// Prefix cells
const (
	CapitalSign = '⠨'
	NumberSign  = '⠼'
	// LetterSwitch ends number mode before a letter that shares a digit cell
	LetterSwitch = '⠐'
	// Unknown replaces anything the tables cannot represent
	Unknown = '?'
)

var letters = map[rune]rune{
	'a': '⠁', 'b': '⠃', 'c': '⠉', 'd': '⠙', 'e': '⠑',
	'f': '⠋', 'g': '⠛', 'h': '⠓', 'i': '⠊', 'j': '⠚',
	'k': '⠅', 'l': '⠇', 'm': '⠍', 'n': '⠝', 'o': '⠕',
	'p': '⠏', 'q': '⠟', 'r': '⠗', 's': '⠎', 't': '⠞',
	'u': '⠥', 'v': '⠧', 'w': '⠺', 'x': '⠭', 'y': '⠽',
	'z': '⠵',
	'ñ': '⠻', 'á': '⠷', 'é': '⠮', 'í': '⠌', 'ó': '⠬',
	'ú': '⠾', 'ü': '⠳',
}

// Digits reuse the cells of a-j after the number sign
var digits = map[rune]rune{
	'1': '⠁', '2': '⠃', '3': '⠉', '4': '⠙', '5': '⠑',
	'6': '⠋', '7': '⠛', '8': '⠓', '9': '⠊', '0': '⠚',
}

var punctuation = map[rune]rune{
	'.': '⠄', ',': '⠂', ';': '⠆', ':': '⠒',
	'¿': '⠢', '?': '⠢', '¡': '⠖', '!': '⠖',
	'"': '⠦', '(': '⠣', ')': '⠜', '-': '⠤',
}

var (
	reverseLetters     = invert(letters)
	reverseDigits      = invert(digits)
	reversePunctuation = map[rune]rune{
		'⠄': '.', '⠂': ',', '⠆': ';', '⠒': ':',
		'⠢': '?', '⠖': '!', '⠦': '"', '⠣': '(',
		'⠜': ')', '⠤': '-',
	}
)

func invert(m map[rune]rune) map[rune]rune {
	out := make(map[rune]rune, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// ToBraille converts Spanish text to Unicode Braille.
// Uppercase letters get the capital sign; runs of digits get one number sign,
// and a-j right after a number are preceded by the letter switch.
// Whitespace is kept; characters without a cell become '?'.
func ToBraille(text string) string {
	var b strings.Builder
	inNumber := false

	for _, r := range text {
		if cell, ok := digits[r]; ok {
			if !inNumber {
				b.WriteRune(NumberSign)
				inNumber = true
			}
			b.WriteRune(cell)
			continue
		}
		// Decimal and thousands separators stay inside the number
		if inNumber && (r == ',' || r == '.') {
			b.WriteRune(punctuation[r])
			continue
		}
		if inNumber {
			if cell, ok := letters[r]; ok {
				if _, digitCell := reverseDigits[cell]; digitCell {
					b.WriteRune(LetterSwitch)
				}
			}
		}
		inNumber = false

		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case unicode.IsUpper(r):
			if cell, ok := letters[unicode.ToLower(r)]; ok {
				b.WriteRune(CapitalSign)
				b.WriteRune(cell)
			} else {
				b.WriteRune(Unknown)
			}
		default:
			if cell, ok := letters[r]; ok {
				b.WriteRune(cell)
			} else if cell, ok := punctuation[r]; ok {
				b.WriteRune(cell)
			} else {
				b.WriteRune(Unknown)
			}
		}
	}

	return b.String()
}

// ToText converts Unicode Braille back to Spanish text.
// Question and exclamation cells are rendered as the closing marks.
func ToText(braille string) string {
	var b strings.Builder
	capital := false
	inNumber := false

	for _, r := range braille {
		switch {
		case r == CapitalSign:
			capital = true
			inNumber = false
			continue
		case r == NumberSign:
			inNumber = true
			capital = false
			continue
		case r == LetterSwitch:
			inNumber = false
			continue
		case unicode.IsSpace(r) || r == '⠀':
			inNumber = false
			capital = false
			if r == '⠀' {
				r = ' '
			}
			b.WriteRune(r)
			continue
		}

		if inNumber {
			if d, ok := reverseDigits[r]; ok {
				b.WriteRune(d)
				continue
			}
			if r == '⠂' || r == '⠄' {
				b.WriteRune(reversePunctuation[r])
				continue
			}
			inNumber = false
		}

		if l, ok := reverseLetters[r]; ok {
			if capital {
				l = unicode.ToUpper(l)
				capital = false
			}
			b.WriteRune(l)
			continue
		}
		capital = false

		if p, ok := reversePunctuation[r]; ok {
			b.WriteRune(p)
			continue
		}
		b.WriteRune(Unknown)
	}

	return b.String()
}
