package printer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Code tables selectable with ESC t that have a matching charmap. Tables
// without one (Katakana, MIK, Iran, Thai...) fall back to plain ASCII.
var codePages = map[int]*charmap.Charmap{
	0:  charmap.CodePage437,
	2:  charmap.CodePage850,
	3:  charmap.CodePage860,
	4:  charmap.CodePage863,
	5:  charmap.CodePage865,
	6:  charmap.Windows1251,
	7:  charmap.CodePage866,
	15: charmap.CodePage862,
	16: charmap.Windows1252,
	17: charmap.Windows1253,
	18: charmap.CodePage852,
	19: charmap.CodePage858,
	23: charmap.ISO8859_1,
	25: charmap.Windows1257,
	28: charmap.CodePage855,
	30: charmap.Windows1250,
	32: charmap.Windows1254,
	33: charmap.Windows1255,
	34: charmap.Windows1256,
	35: charmap.Windows1258,
	36: charmap.ISO8859_2,
	37: charmap.ISO8859_3,
	38: charmap.ISO8859_4,
	39: charmap.ISO8859_5,
	40: charmap.ISO8859_9,
	41: charmap.ISO8859_15,
	44: charmap.Windows874,
}

const unknownGlyph = '?'

// encodeText converts UTF-8 text to single byte characters of the given code
// table. Runes the table can't represent become '?'.
func encodeText(s string, page int) []byte {
	cm := codePages[page]
	out := make([]byte, 0, len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if cm != nil {
			if b, ok := cm.EncodeRune(r); ok {
				out = append(out, b)
				continue
			}
		}
		out = append(out, unknownGlyph)
	}
	return out
}
