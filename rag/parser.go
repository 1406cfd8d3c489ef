package rag

import (
	"strings"
)

// Verdict is the adjudication outcome extracted from the model's reply
type Verdict string

const (
	VerdictApproved    Verdict = "Approved"
	VerdictRejected    Verdict = "Rejected"
	VerdictUnparseable Verdict = "Unparseable"
)

// Decision is the parsed result of one adjudication
type Decision struct {
	Verdict     Verdict `json:"verdict"`
	Explanation string  `json:"explanation"`
}

const (
	binaryResultMarker = "Binary Result:"
	explanationMarker  = "Explanation:"

	// Diagnostic explanation for malformed model output
	msgFormatMismatch = "Output format does not match the expected format."
)

// ParseDecision extracts a verdict and explanation from raw model output.
// The scan is forgiving of surrounding prose but strict about the marker
// literals. Malformed output is an expected case, not an exceptional one:
// the function never panics and never resolves ambiguity to an approval.
func ParseDecision(raw string) Decision {
	if !strings.Contains(raw, binaryResultMarker) || !strings.Contains(raw, explanationMarker) {
		return Decision{Verdict: VerdictUnparseable, Explanation: msgFormatMismatch}
	}

	afterResult := raw[strings.Index(raw, binaryResultMarker)+len(binaryResultMarker):]
	resultLine := afterResult
	if i := strings.IndexByte(afterResult, '\n'); i >= 0 {
		resultLine = afterResult[:i]
	}
	// Strip a trailing "Explanation:" that landed on the same line
	if i := strings.Index(resultLine, explanationMarker); i >= 0 {
		resultLine = resultLine[:i]
	}
	result := strings.TrimSpace(resultLine)
	explanation := strings.TrimSpace(raw[strings.Index(raw, explanationMarker)+len(explanationMarker):])

	verdict := VerdictRejected
	if result == "1" {
		verdict = VerdictApproved
	}

	return Decision{Verdict: verdict, Explanation: explanation}
}
