package toxicity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultURL is the hosted toxic-bert inference endpoint.
const DefaultURL = "https://api-inference.huggingface.co/models/unitary/toxic-bert"

// HuggingFaceClassifier calls a Hugging Face text-classification endpoint.
type HuggingFaceClassifier struct {
	url    string
	token  string
	client *http.Client
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NewHuggingFaceClassifier creates a classifier for the given endpoint.
func NewHuggingFaceClassifier(url, token string) *HuggingFaceClassifier {
	if url == "" {
		url = DefaultURL
	}
	return &HuggingFaceClassifier{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Classify posts text to the inference endpoint and returns its label scores.
func (c *HuggingFaceClassifier) Classify(ctx context.Context, text string) (map[string]float64, error) {
	body, _ := json.Marshal(hfRequest{Inputs: text})
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("huggingface error %d: %s", resp.StatusCode, string(b))
	}
	return decodeLabels(b)
}

// decodeLabels accepts both the batched [[{label, score}]] shape and a
// flat [{label, score}] list.
func decodeLabels(b []byte) (map[string]float64, error) {
	var nested [][]hfLabel
	if err := json.Unmarshal(b, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("no labels returned")
		}
		return labelMap(nested[0]), nil
	}
	var flat []hfLabel
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("no labels returned")
	}
	return labelMap(flat), nil
}

func labelMap(labels []hfLabel) map[string]float64 {
	out := make(map[string]float64, len(labels))
	for _, l := range labels {
		out[l.Label] = l.Score
	}
	return out
}

// --- Factory ---

// Providers accepted by NewFromEnv.
const (
	ProviderLocal       = "local"
	ProviderHuggingFace = "huggingface"
	ProviderOff         = "off"
)

// NewFromEnv creates a Detector from environment variables.
// CONVOQ_TOXICITY_PROVIDER: "local" (default) | "huggingface" | "off"
// CONVOQ_TOXICITY_URL: classifier endpoint override
// HF_TOKEN: Hugging Face API token
// It returns nil when toxicity detection is off.
func NewFromEnv(opts ...Option) (*Detector, error) {
	return NewForProvider(os.Getenv("CONVOQ_TOXICITY_PROVIDER"), opts...)
}

// NewForProvider creates a Detector for the named provider, reading the
// remote endpoint settings from the environment.
func NewForProvider(provider string, opts ...Option) (*Detector, error) {
	switch provider {
	case "", ProviderLocal:
		return New(opts...), nil
	case ProviderHuggingFace:
		c := NewHuggingFaceClassifier(os.Getenv("CONVOQ_TOXICITY_URL"), os.Getenv("HF_TOKEN"))
		return New(append(opts, WithClassifier(c))...), nil
	case ProviderOff:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown toxicity provider %q", provider)
	}
}
