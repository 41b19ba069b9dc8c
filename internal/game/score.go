package game

import "unicode/utf8"

// Score maps a submitted word to its point value.
//
//	length 0-2 -> 0, 3-4 -> 1, 5 -> 2, 6 -> 3, 7 -> 5, 8+ -> 11
//
// A word that cannot be traced on the board, or is not in the dictionary,
// scores -1 whatever its length.
func Score(word string, formable, isDictionaryWord bool) int {
	if !formable || !isDictionaryWord {
		return -1
	}
	switch n := utf8.RuneCountInString(NormalizeWord(word)); {
	case n <= 2:
		return 0
	case n <= 4:
		return 1
	case n == 5:
		return 2
	case n == 6:
		return 3
	case n == 7:
		return 5
	default:
		return 11
	}
}
