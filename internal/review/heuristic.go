package review

import "strings"

// codeIndicators are surface tokens spanning common syntaxes. This is a
// heuristic, not a parser: two hits are enough to call the input code.
var codeIndicators = []string{
	"def ", "class ", "function ", "import ", "from ",
	"{", "}", "()", "=>", "return ", "if ", "for ",
	"const ", "let ", "var ", "<?php", "public ", "private ",
}

// LooksLikeCode reports whether the text reads as code rather than an
// architecture description. It only selects the prompt template.
func LooksLikeCode(text string) bool {
	count := 0
	for _, indicator := range codeIndicators {
		if strings.Contains(text, indicator) {
			count++
		}
	}
	return count >= 2
}
