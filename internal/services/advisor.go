package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/spamcheck"
	"github.com/carewise/carehub/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// verdictRegex pulls the model's confidence number out of free-form output.
var verdictRegex = regexp.MustCompile(`(?i)confidence[:：]?\s*(\d+)`)

const advisorPromptTemplate = `You are reviewing a customer-care message that automated rules flagged as borderline spam.

Message:
%s

Rule engine verdict: %s (score %.0f of 100)
Matched phrases: %s

Answer with exactly two lines:
VERDICT: SPAM or LEGITIMATE
CONFIDENCE: <0-100>`

// AdvisorService asks an LLM for a second opinion on messages the rule
// engine could not decide. It never overrides the engine on its own;
// callers present the opinion to a human reviewer.
type AdvisorService struct {
	config *config.OpenAIConfig
	client *openai.Client
}

func NewAdvisorService(cfg *config.OpenAIConfig) *AdvisorService {
	s := &AdvisorService{config: cfg}
	if cfg.Enabled && cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		s.client = openai.NewClientWithConfig(clientConfig)
	}
	return s
}

// Enabled reports whether an opinion can be requested.
func (s *AdvisorService) Enabled() bool {
	return s.client != nil
}

type Opinion struct {
	Spam       bool    `json:"spam"`
	Confidence float64 `json:"confidence"` // 0..1
	Raw        string  `json:"raw"`
}

// SecondOpinion sends a borderline classification to the configured
// model and parses its verdict.
func (s *AdvisorService) SecondOpinion(ctx context.Context, text string, result *spamcheck.Result) (*Opinion, error) {
	if s.client == nil {
		return nil, fmt.Errorf("advisor is not configured")
	}

	patterns := "none"
	if len(result.Patterns) > 0 {
		patterns = strings.Join(result.Patterns, ", ")
	}
	prompt := fmt.Sprintf(advisorPromptTemplate, text, result.Tier, result.Score, patterns)

	model := s.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		logger.Warnf("[advisor] chat completion failed: %v", err)
		return nil, fmt.Errorf("advisor request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("advisor returned no choices")
	}

	content := resp.Choices[0].Message.Content
	return parseOpinion(content), nil
}

func parseOpinion(content string) *Opinion {
	op := &Opinion{Raw: content}
	upper := strings.ToUpper(content)

	// LEGITIMATE contains no standalone "SPAM", so a plain substring
	// check on the verdict line is enough.
	for _, line := range strings.Split(upper, "\n") {
		if strings.Contains(line, "VERDICT") {
			op.Spam = strings.Contains(line, "SPAM")
			break
		}
	}

	if m := verdictRegex.FindStringSubmatch(content); len(m) == 2 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if n > 100 {
				n = 100
			}
			op.Confidence = float64(n) / 100
		}
	}
	return op
}
