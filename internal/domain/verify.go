package domain

// Verification is the outcome of a fact-verification run.
type Verification struct {
	Claim       string      `json:"claim"`
	Verdict     string      `json:"verdict"` // "true" | "false" | "partially true" | "unverifiable"
	Explanation string      `json:"explanation"`
	Sources     []SearchRef `json:"sources"`
}
