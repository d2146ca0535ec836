package orchestration

import (
	"context"
	"strings"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/pkg/models"
)

// Classifier decides what a request is trying to do.
type Classifier interface {
	Classify(ctx context.Context, text string, reqCtx models.RequestContext) (Intent, error)
}

// intentRule maps trigger phrases to an intent with a confidence. Rules
// are checked in order; the first match wins.
type intentRule struct {
	intent     string
	confidence float64
	phrases    []string
}

// keywordRules order matters: help phrasing is checked before the looser
// list triggers so "what can I do" never degrades to a list request.
var keywordRules = []intentRule{
	{IntentHelpRequest, 0.9, []string{
		"/help", "/start", "help", "what can i do", "what can you do", "how do i", "how to",
	}},
	{IntentRegistration, 0.85, []string{
		"/register", "/linkcontact", "/addplayer", "register", "sign up", "signup", "join the team", "add me",
	}},
	{IntentStatusInquiry, 0.8, []string{
		"/status", "/myinfo", "my info", "my status", "am i approved", "my details",
	}},
	{IntentListRequest, 0.75, []string{
		"/list", "/matches", "/attendance", "list", "show me", "who is playing", "who's playing", "fixtures", "squad",
	}},
}

// KeywordClassifier is the default rule-based classifier. It is cheap,
// deterministic, and never errors.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string, _ models.RequestContext) (Intent, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Intent{Name: IntentUnknown}, nil
	}

	for _, rule := range keywordRules {
		for _, phrase := range rule.phrases {
			if matchesPhrase(normalized, phrase) {
				return Intent{Name: rule.intent, Confidence: rule.confidence}, nil
			}
		}
	}
	return Intent{Name: IntentGeneralInquiry, Confidence: 0.4}, nil
}

// matchesPhrase applies containment for multi-word phrases and word-level
// matching for single keywords, so "helpful" does not trigger "help".
func matchesPhrase(text, phrase string) bool {
	if strings.HasPrefix(phrase, "/") {
		first, _, _ := strings.Cut(text, " ")
		return first == phrase
	}
	if strings.Contains(phrase, " ") {
		return strings.Contains(text, phrase)
	}
	for _, word := range strings.Fields(text) {
		if strings.Trim(word, "?!.,") == phrase {
			return true
		}
	}
	return false
}

// LLMClassifier asks the provider to label the request, falling back to
// the keyword rules when the provider fails or answers off-script.
type LLMClassifier struct {
	Provider agent.LLMProvider
	Model    string
	Fallback KeywordClassifier
}

const llmIntentPrompt = `Classify the football-team chat message into exactly one label:
help_request, status_inquiry, registration, list_request, general_inquiry.
Reply with the label only.`

func (c *LLMClassifier) Classify(ctx context.Context, text string, reqCtx models.RequestContext) (Intent, error) {
	chunks, err := c.Provider.Complete(ctx, &agent.CompletionRequest{
		Model:     c.Model,
		System:    llmIntentPrompt,
		Messages:  []agent.Message{{Role: agent.RoleUser, Content: text}},
		MaxTokens: 8,
	})
	if err != nil {
		return c.Fallback.Classify(ctx, text, reqCtx)
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return c.Fallback.Classify(ctx, text, reqCtx)
		}
		b.WriteString(chunk.Text)
	}

	label := strings.ToLower(strings.TrimSpace(b.String()))
	switch label {
	case IntentHelpRequest, IntentStatusInquiry, IntentRegistration, IntentListRequest, IntentGeneralInquiry:
		return Intent{Name: label, Confidence: 0.9}, nil
	}
	return c.Fallback.Classify(ctx, text, reqCtx)
}
