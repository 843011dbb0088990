package repoctx

// EstimateTokens approximates the token count of text using the ~4 chars per
// token heuristic. This is not a tokenizer; it only feeds context budgets.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	estimated := len(text) / 4
	if estimated < 1 {
		return 1
	}
	return estimated
}
