package tokens

import "strings"

// Estimate gives a rough token count using a words-to-tokens ratio.
// Exact tokenization is not required for size reporting.
func Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	// Roughly 1.33 tokens per English word.
	n := int(float64(words) * 1.33)
	if n < 1 {
		n = 1
	}
	return n
}

// Budget reports whether text fits within max tokens. A max of zero or
// less means unlimited.
func Budget(text string, max int) (int, bool) {
	n := Estimate(text)
	return n, max <= 0 || n <= max
}
