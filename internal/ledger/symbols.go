package ledger

import "strings"

// SymbolsOf extracts the ordered symbol codes embedded in a card payload.
//
// The payload carries a bracketed, whitespace-separated token list, e.g.
// "symbols: [3 5 7]". Tokens lie between the first '[' and the first ']' in
// the payload, the same bounds the server uses when it judges an answer. If
// either bracket is missing, or the first ']' comes before the first '[',
// the result is an empty (non-nil) slice.
func SymbolsOf(text string) []string {
	start := strings.IndexByte(text, '[')
	end := strings.IndexByte(text, ']')
	if start < 0 || end < 0 || end < start {
		return []string{}
	}
	return strings.Fields(text[start+1 : end])
}
