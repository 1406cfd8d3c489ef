package rag

import (
	"strings"
)

// systemInstruction establishes the model's role and the mandatory output
// contract. The two marker lines are the only interface this system has with
// an otherwise free-text model, so the wording stays strict and literal.
const systemInstruction = "You are the head of the HR department. You are responsible for approving or rejecting leave requests based on company policies. " +
	"Use the following context to determine whether the leave request can be accepted or rejected. " +
	"If the leave request is valid according to the company policies, output '1' (accepted). " +
	"If the leave request cannot be accepted according to the company policies, output '0' (rejected). " +
	"Explain the reason clearly. Your output must strictly follow this format:\n\n" +
	"Binary Result: <0 or 1>\n" +
	"Explanation: <Detailed Explanation>"

// BuildDecisionPrompt assembles the adjudication prompt from retrieved policy
// chunks (in retrieval order, most similar first) and the employee's
// free-text justification.
func BuildDecisionPrompt(chunks []string, justification string) string {
	var builder strings.Builder

	builder.WriteString(systemInstruction)
	builder.WriteString("\n\n")

	for _, chunk := range chunks {
		builder.WriteString(chunk)
		builder.WriteString("\n\n")
	}

	builder.WriteString("Leave request: ")
	builder.WriteString(justification)

	return builder.String()
}
