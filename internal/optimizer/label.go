package optimizer

import (
	"fmt"
	"strings"
)

// Language of human readable labels
type Language string

const (
	LanguageGreek   Language = "el"
	LanguageEnglish Language = "en"
)

// ParseLanguage maps a config or query value to a Language, defaulting to Greek
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return LanguageEnglish
	default:
		return LanguageGreek
	}
}

// EfficiencyLabel describes a window as "spend N leave days, get M days off"
func EfficiencyLabel(leave, total int, lang Language) string {
	if lang == LanguageEnglish {
		return fmt.Sprintf("Spend %d leave %s, get %d %s off",
			leave, plural(leave, "day", "days"),
			total, plural(total, "day", "days"))
	}

	return fmt.Sprintf("Ξοδέψτε %d %s άδειας, κερδίστε %d %s ξεκούρασης",
		leave, plural(leave, "ημέρα", "ημέρες"),
		total, plural(total, "ημέρα", "ημέρες"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
