package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/rcliao/convoq/internal/model"
)

// DefaultModel is used when CONVOQ_COACH_MODEL is unset.
const DefaultModel = "gpt-5-mini"

type narrativeResponse struct {
	Vibe      string `json:"vibe" jsonschema:"description=Short label for the overall vibe"`
	GreenFlag string `json:"green_flag" jsonschema:"description=One healthy pattern"`
	RedFlag   string `json:"red_flag" jsonschema:"description=One concerning pattern"`
	Advice    string `json:"advice" jsonschema:"description=Two sentences of advice"`
}

var narrativeSchema = GenerateSchema[narrativeResponse]()

// OpenAINarrator asks the OpenAI Responses API for a narrative.
type OpenAINarrator struct {
	client *openai.Client
	model  string
}

// NewOpenAINarrator creates a narrator with the given key and model.
func NewOpenAINarrator(apiKey, model string, opts ...option.RequestOption) *OpenAINarrator {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAINarrator{client: &client, model: model}
}

// NewFromEnv creates a narrator from environment variables.
// OPENAI_API_KEY: required; nil is returned without it
// CONVOQ_COACH_MODEL: model name
func NewFromEnv() *OpenAINarrator {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	return NewOpenAINarrator(key, os.Getenv("CONVOQ_COACH_MODEL"))
}

// Narrate asks the model for a vibe check of r.
func (n *OpenAINarrator) Narrate(ctx context.Context, r *model.Report) (*model.Narrative, error) {
	if n.client == nil {
		return nil, errors.New("coach: client is nil")
	}

	params := structuredParams(n.model, Instructions, BuildPrompt(r),
		"VibeCheck", "Conversation vibe check JSON", narrativeSchema)

	resp, err := callWithRetry(ctx, n.client, params)
	if err != nil {
		return nil, fmt.Errorf("coach request: %w", err)
	}

	var out narrativeResponse
	if err := DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("unmarshal narrative: %w", err)
	}
	return &model.Narrative{
		Vibe:      strings.TrimSpace(out.Vibe),
		GreenFlag: strings.TrimSpace(out.GreenFlag),
		RedFlag:   strings.TrimSpace(out.RedFlag),
		Advice:    strings.TrimSpace(out.Advice),
	}, nil
}

// structuredParams builds a Responses request whose output must match schema.
func structuredParams(model, instructions, prompt, name, description string, schema map[string]any) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(1200),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        name,
					Schema:      schema,
					Strict:      openai.Bool(true),
					Description: openai.String(description),
					Type:        "json_schema",
				},
			},
		},
	}
}

func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	waits := []time.Duration{2 * time.Second, 5 * time.Second}

	for attempt := 0; ; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		if attempt >= len(waits) || !isRetryable(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waits[attempt]):
		}
	}
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") || strings.Contains(s, "too many requests")
}

// ---- Structured output schema ----

// GenerateSchema reflects T into a strict JSON schema accepted by the
// Responses API: every object closed and every property required.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	ensureStrict(m)
	return m
}

func ensureStrict(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				ensureStrict(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrict(items)
	}
}
