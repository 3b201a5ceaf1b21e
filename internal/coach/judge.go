package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/semantic"
)

// JudgeInstructions is the system prompt for labeling conflict windows.
const JudgeInstructions = `You are an expert semantic analyst. You receive a JSON list of conversation chunks, each with an id and its lines as "sender: message".
For each chunk decide whether it is a Quarrel (a real fight), Banter (playful fighting) or Serious (a heavy but not hostile talk).
Return one verdict per chunk with the chunk id, the type, a confidence between 0 and 1 and a one sentence summary of what happened.`

type verdictResponse struct {
	Verdicts []verdictItem `json:"verdicts" jsonschema:"description=One verdict per chunk"`
}

type verdictItem struct {
	ID         int     `json:"id" jsonschema:"description=Chunk id from the input"`
	Type       string  `json:"type" jsonschema:"enum=Quarrel,enum=Banter,enum=Serious"`
	Confidence float64 `json:"confidence" jsonschema:"description=Confidence from 0 to 1"`
	Summary    string  `json:"summary" jsonschema:"description=One sentence on what happened"`
}

var verdictSchema = GenerateSchema[verdictResponse]()

// OpenAIJudge labels conflict windows with the OpenAI Responses API.
type OpenAIJudge struct {
	client *openai.Client
	model  string
}

// NewOpenAIJudge creates a judge with the given key and model.
func NewOpenAIJudge(apiKey, model string, opts ...option.RequestOption) *OpenAIJudge {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIJudge{client: &client, model: model}
}

// NewJudgeFromEnv creates a judge from environment variables.
// OPENAI_API_KEY: required; nil is returned without it
// CONVOQ_JUDGE_MODEL: model name, falling back to CONVOQ_COACH_MODEL
func NewJudgeFromEnv() *OpenAIJudge {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	m := os.Getenv("CONVOQ_JUDGE_MODEL")
	if m == "" {
		m = os.Getenv("CONVOQ_COACH_MODEL")
	}
	return NewOpenAIJudge(key, m)
}

// BuildJudgePrompt packs events into one JSON list keyed by their index.
func BuildJudgePrompt(events []model.ConflictEvent) (string, error) {
	type chunk struct {
		ID    int      `json:"id"`
		Convo []string `json:"convo"`
	}
	chunks := make([]chunk, len(events))
	for i, e := range events {
		chunks[i] = chunk{ID: i, Convo: e.Messages}
	}
	b, err := json.Marshal(chunks)
	if err != nil {
		return "", err
	}
	return "Analyze these conversations: " + string(b), nil
}

// Judge sends all events in a single request.
func (j *OpenAIJudge) Judge(ctx context.Context, events []model.ConflictEvent) ([]semantic.Verdict, error) {
	if j.client == nil {
		return nil, errors.New("judge: client is nil")
	}
	if len(events) == 0 {
		return nil, nil
	}

	prompt, err := BuildJudgePrompt(events)
	if err != nil {
		return nil, fmt.Errorf("build judge prompt: %w", err)
	}
	params := structuredParams(j.model, JudgeInstructions, prompt,
		"ConflictVerdicts", "Labels for suspicious conversation chunks", verdictSchema)

	resp, err := callWithRetry(ctx, j.client, params)
	if err != nil {
		return nil, fmt.Errorf("judge request: %w", err)
	}

	var out verdictResponse
	if err := DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("unmarshal verdicts: %w", err)
	}
	verdicts := make([]semantic.Verdict, 0, len(out.Verdicts))
	for _, v := range out.Verdicts {
		verdicts = append(verdicts, semantic.Verdict{
			ID:         v.ID,
			Type:       v.Type,
			Confidence: v.Confidence,
			Summary:    v.Summary,
		})
	}
	return verdicts, nil
}
