package search

// DefaultStopwords covers the most frequent Spanish and English function
// words found in survey comments.
var DefaultStopwords = []string{
	// es
	"a", "al", "algo", "con", "de", "del", "el", "en", "es", "esta", "este", "la", "las", "le", "lo", "los",
	"mas", "me", "mi", "muy", "no", "nos", "o", "para", "pero", "por", "que", "se", "si", "sin", "su", "sus",
	"un", "una", "uno", "y", "ya",
	// en
	"an", "and", "are", "be", "for", "in", "is", "it", "of", "on", "or", "the", "to", "we", "with",
}
