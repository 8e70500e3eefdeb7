package nlu

import "strings"

// stopWords are dropped during preprocessing so that keyword scoring only
// sees content-bearing tokens. Note that "all" and "no" are stop words:
// rules that depend on them check the raw text instead.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"i", "me", "my", "myself", "we", "our", "ours", "you", "your", "yours",
		"he", "him", "his", "she", "her", "it", "its", "they", "them", "their",
		"what", "which", "who", "whom", "this", "that", "these", "those",
		"am", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having", "do", "does", "did", "doing",
		"a", "an", "the", "and", "but", "if", "or", "because", "as",
		"until", "while", "of", "at", "by", "for", "with", "about",
		"between", "into", "through", "during", "before", "after",
		"to", "from", "up", "down", "in", "out", "on", "off", "over", "under",
		"again", "then", "once", "here", "there", "when", "where", "why", "how",
		"all", "any", "both", "each", "few", "more", "most", "other", "some",
		"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too",
		"very", "can", "will", "just", "should", "now", "please",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

// Preprocess lower-cases the text, splits it into alphanumeric tokens and
// drops stop words. The result feeds intent scoring; entity extraction and
// literal keyword checks always run against the original text.
func Preprocess(text string) []string {
	lower := strings.ToLower(text)
	tokens := splitAlnum(lower)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// HasToken reports whether the raw text contains word as a whole lower-cased
// token, ignoring the stop-word filter.
func HasToken(text, word string) bool {
	for _, tok := range splitAlnum(strings.ToLower(text)) {
		if tok == word {
			return true
		}
	}
	return false
}

func splitAlnum(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
