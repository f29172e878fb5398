package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harrison/gauntlet/internal/models"
)

const (
	// DefaultJudgeModel is used when a scenario enables the judge without
	// naming a model.
	DefaultJudgeModel = "gpt-4o-mini"
	// DefaultJudgeThreshold is the minimum judge score that counts as a
	// pass when the scenario does not set its own.
	DefaultJudgeThreshold = 0.8

	judgeMaxTokens   = 1024
	judgeMaxFileSize = 16 * 1024
)

// JudgeValidator sends the changed files to a chat-completion API and asks
// it to review them against the scenario's criteria. Without an API key the
// validator reports itself as skipped for every scenario.
type JudgeValidator struct {
	root   string
	client *openai.Client
	model  string

	// MaxTokens caps the judge's response length.
	MaxTokens int
}

// NewJudgeValidator builds a judge rooted at the workspace. An empty apiKey
// leaves the client unset, which turns every Validate call into a skip.
func NewJudgeValidator(root, apiKey, model string) *JudgeValidator {
	v := &JudgeValidator{root: root, model: model, MaxTokens: judgeMaxTokens}
	if v.model == "" {
		v.model = DefaultJudgeModel
	}
	if apiKey != "" {
		v.client = openai.NewClientWithConfig(openai.DefaultConfig(apiKey))
	}
	return v
}

// Kind implements Validator.
func (v *JudgeValidator) Kind() string {
	return models.ValidatorJudge
}

// Validate asks the judge model to score the changed files. The scenario
// must explicitly enable the judge; a missing API key or an empty change
// set skips rather than fails.
func (v *JudgeValidator) Validate(ctx context.Context, files []string, scenario *models.Scenario) models.ValidationResult {
	if !scenario.Strategy.JudgeEnabled() {
		return models.SkippedResult(v.Kind())
	}
	if v.client == nil {
		return models.SkippedResult(v.Kind())
	}

	loaded, err := loadFiles(v.root, files)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}
	if len(loaded) == 0 {
		return models.SkippedResult(v.Kind())
	}

	cfg := scenario.Strategy.Judge
	model := v.model
	if cfg.Model != "" {
		model = cfg.Model
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultJudgeThreshold
	}

	request := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: v.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: judgeSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildJudgePrompt(scenario, strings.Join(cfg.Criteria, "\n"), loaded),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := v.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return models.FailedResult(v.Kind(), fmt.Errorf("judge request failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return models.FailedResult(v.Kind(), fmt.Errorf("judge returned no choices"))
	}

	score, violations, err := parseJudgeResponse(strings.TrimSpace(resp.Choices[0].Message.Content), scenario.Severity)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}

	return models.ValidationResult{
		Validator:  v.Kind(),
		Passed:     score >= threshold,
		Score:      models.ScoreOf(score),
		Violations: violations,
	}
}

func judgeSystemPrompt() string {
	return "You are an automated code reviewer evaluating changes made by an AI coding agent. " +
		"Respond with a JSON object containing score (a number from 0 to 1), feedback (a short summary), " +
		"and findings (an array of objects with message, file, and severity fields, " +
		"severity one of critical, major, minor). Report only genuine problems as findings."
}

func buildJudgePrompt(scenario *models.Scenario, criteria string, files []loadedFile) string {
	var b strings.Builder
	b.WriteString("# Task given to the agent\n")
	b.WriteString(scenario.Prompt)
	if scenario.Context != "" {
		b.WriteString("\n\n## Context\n")
		b.WriteString(scenario.Context)
	}
	if criteria != "" {
		b.WriteString("\n\n## Evaluation criteria\n")
		b.WriteString(criteria)
	}
	b.WriteString("\n\n## Changed files\n")
	for _, f := range files {
		b.WriteString("\n### ")
		b.WriteString(f.path)
		b.WriteString("\n```\n")
		b.WriteString(truncate(f.content, judgeMaxFileSize))
		b.WriteString("\n```\n")
	}
	b.WriteString("\nReturn JSON.")
	return b.String()
}

func parseJudgeResponse(content string, fallback models.Severity) (float64, []models.Violation, error) {
	type finding struct {
		Message  string `json:"message"`
		File     string `json:"file"`
		Severity string `json:"severity"`
	}
	type payload struct {
		Score    float64   `json:"score"`
		Feedback string    `json:"feedback"`
		Findings []finding `json:"findings"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return 0, nil, fmt.Errorf("failed to parse judge response: %w", err)
	}

	if data.Score < 0 {
		data.Score = 0
	}
	if data.Score > 1 {
		data.Score = 1
	}

	var violations []models.Violation
	for _, f := range data.Findings {
		if f.Message == "" {
			continue
		}
		severity := models.Severity(strings.ToLower(f.Severity))
		if !severity.Valid() {
			severity = fallback
		}
		violations = append(violations, models.Violation{
			Kind:     models.ValidatorJudge,
			Message:  f.Message,
			File:     f.File,
			Severity: severity,
		})
	}
	return data.Score, violations, nil
}
