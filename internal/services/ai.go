package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/printshop-manager/internal/models"
)

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

// DraftedTask is one task suggested by the model. Drafts are never saved automatically.
type DraftedTask struct {
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewAIServiceWithConfig allows a custom base URL, mainly for tests.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		now:    time.Now,
	}
}

// DraftTasks extracts shop tasks from free text such as a customer note or a
// phone call summary. Tasks without a due date are due tomorrow.
func (s *AIService) DraftTasks(ctx context.Context, text string) ([]models.Task, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	now := s.now()
	prompt := fmt.Sprintf(`You extract work items for a print shop from the text below.

Current time: %s

Text:
%s

Return a JSON array of tasks in this format:
[
  {
    "description": "what has to be done, one short sentence",
    "priority": "Low, Medium or High",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T17:00:00Z, or null when none is given"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") to concrete times
- Return JSON only, no explanation`, now.Format("2006-01-02 15:04:05"), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var drafts []DraftedTask
	if err := json.Unmarshal([]byte(content), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	tasks := make([]models.Task, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d.Description) == "" {
			continue
		}
		task := models.Task{
			Description: d.Description,
			Status:      models.TaskStatusOpen,
			Priority:    normalizePriority(d.Priority),
			DueDate:     now.Add(24 * time.Hour).UTC(),
		}
		if d.DueDate != nil {
			task.DueDate = d.DueDate.UTC()
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func normalizePriority(p string) models.TaskPriority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high":
		return models.TaskPriorityHigh
	case "low":
		return models.TaskPriorityLow
	default:
		return models.TaskPriorityMedium
	}
}

// stripCodeFence removes a ```json fence some models wrap around their answer.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
