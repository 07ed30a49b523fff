package services

import (
	"fmt"
	"strings"

	"github.com/yungbote/interview-coach/internal/platform/promptstyle"
)

const (
	questionsSchemaName = "interview_questions"
	feedbackSchemaName  = "answer_feedback"
)

func questionsSchema(n int) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": n,
				"maxItems": n,
				"items":    map[string]any{"type": "string"},
			},
		},
	}
}

func feedbackSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"strengths", "weaknesses", "improvements", "aiSuggestedAnswer", "score"},
		"properties": map[string]any{
			"strengths":         map[string]any{"type": "string"},
			"weaknesses":        map[string]any{"type": "string"},
			"improvements":      map[string]any{"type": "string"},
			"aiSuggestedAnswer": map[string]any{"type": "string"},
			"score":             map[string]any{"type": "number"},
		},
	}
}

func questionsPrompt(jobRole, techStack string, n int) (system string, user string) {
	system = promptstyle.ApplySystem(
		"Generate common interview questions for a job candidate.\n"+
			"Return them under the key \"questions\" as a JSON array of strings.", promptstyle.JSON)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d common interview questions for a %q position.", n, jobRole)
	if techStack != "" {
		fmt.Fprintf(&b, "\nFocus on the %q tech stack.", techStack)
	}
	return system, b.String()
}

func feedbackPrompt(jobRole, question, answer string) (system string, user string) {
	system = promptstyle.ApplySystem(
		"You are an interview coach providing constructive feedback.\n"+
			"Evaluate the user's answer. Provide:\n"+
			"1. strengths: what was good about the answer.\n"+
			"2. weaknesses: areas for improvement.\n"+
			"3. improvements: specific suggestions for how to improve the answer.\n"+
			"4. aiSuggestedAnswer: a concise example of an ideal answer.\n"+
			"5. score: a numerical score out of 10 for the user's answer.", promptstyle.JSON)

	user = fmt.Sprintf("Job Role: %s\nQuestion: %q\nUser's Answer: %q", jobRole, question, answer)
	return system, user
}
