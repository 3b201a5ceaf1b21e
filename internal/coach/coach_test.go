package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"

	"github.com/rcliao/convoq/internal/model"
)

func report() *model.Report {
	return &model.Report{
		Participants: []model.Participant{{Name: "Alice"}, {Name: "Bob"}},
		HealthScore:  72.5,
		Persona:      "Synchronized Duo",
		Initiations:  map[string]int{"Bob": 2, "Alice": 3},
		Features: model.FeatureVector{
			ReplyTimeBalance:   0.8,
			SentimentStability: 0.9,
			MsgLengthBalance:   0.65,
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(report())
	for _, want := range []string{
		"Participants: Alice, Bob",
		"Health Score: 72.50/100",
		"Initiations: Alice=3, Bob=2",
		"Reply Time Balance: 0.80",
		"Msg Length Balance: 0.65",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "Toxicity") {
		t.Error("expected no toxicity line without a toxicity report")
	}
}

func TestDecodeModelJSON(t *testing.T) {
	var n narrativeResponse
	if err := DecodeModelJSON(`Sure! {"vibe":"Besties","green_flag":"g","red_flag":"r","advice":"a"} hope this helps`, &n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Vibe != "Besties" {
		t.Errorf("expected vibe Besties, got %q", n.Vibe)
	}
	if err := DecodeModelJSON("   ", &n); err == nil {
		t.Error("expected error for empty output")
	}
	if err := DecodeModelJSON("no json here", &n); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestGenerateSchema(t *testing.T) {
	if narrativeSchema["additionalProperties"] != false {
		t.Errorf("expected closed schema, got %v", narrativeSchema["additionalProperties"])
	}
	raw, ok := narrativeSchema["required"].([]string)
	if !ok {
		t.Fatalf("expected required list, got %T", narrativeSchema["required"])
	}
	req := append([]string(nil), raw...)
	sort.Strings(req)
	if strings.Join(req, ",") != "advice,green_flag,red_flag,vibe" {
		t.Errorf("unexpected required fields: %v", req)
	}
}

func TestNewFromEnvDisabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if n := NewFromEnv(); n != nil {
		t.Error("expected nil narrator without an API key")
	}
}

// responsesServer fakes the Responses endpoint, answering every request
// with text as the model output. check inspects the decoded request body.
func responsesServer(t *testing.T, text string, check func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "resp_1",
			"object":     "response",
			"created_at": 0,
			"model":      body["model"],
			"status":     "completed",
			"output": []any{map[string]any{
				"type":   "message",
				"id":     "msg_1",
				"role":   "assistant",
				"status": "completed",
				"content": []any{map[string]any{
					"type":        "output_text",
					"text":        text,
					"annotations": []any{},
				}},
			}},
		})
	}))
}

func TestOpenAINarrator(t *testing.T) {
	text, _ := json.Marshal(map[string]string{
		"vibe": " The Supportive Bestie ", "green_flag": "fast replies",
		"red_flag": "Bob rarely starts", "advice": "Text first. Keep it light.",
	})
	srv := responsesServer(t, string(text), func(body map[string]any) {
		if body["model"] != "test-model" {
			t.Errorf("expected test-model, got %v", body["model"])
		}
	})
	defer srv.Close()

	n := NewOpenAINarrator("test-key", "test-model", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	got, err := n.Narrate(context.Background(), report())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Vibe != "The Supportive Bestie" {
		t.Errorf("expected trimmed vibe, got %q", got.Vibe)
	}
	if got.Advice != "Text first. Keep it light." {
		t.Errorf("unexpected advice: %q", got.Advice)
	}
}

func events() []model.ConflictEvent {
	return []model.ConflictEvent{
		{Timestamp: "1/5/24 10:00 AM", AvgSentiment: -0.5, Messages: []string{"Alice: stop", "Bob: whatever"}},
		{Timestamp: "1/6/24 9:00 PM", AvgSentiment: -0.2, Messages: []string{"Bob: you're dead lol"}},
	}
}

func TestBuildJudgePrompt(t *testing.T) {
	p, err := BuildJudgePrompt(events())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"id":0,"convo":["Alice: stop","Bob: whatever"]},{"id":1,"convo":["Bob: you're dead lol"]}]`
	if !strings.HasSuffix(p, want) {
		t.Errorf("expected prompt to end with %s, got %s", want, p)
	}
}

func TestVerdictSchema(t *testing.T) {
	props, ok := verdictSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties, got %T", verdictSchema["properties"])
	}
	list, _ := props["verdicts"].(map[string]any)
	items, ok := list["items"].(map[string]any)
	if !ok {
		t.Fatalf("expected verdict items, got %v", list)
	}
	if items["additionalProperties"] != false {
		t.Error("expected closed item schema")
	}
	req, _ := items["required"].([]string)
	sorted := append([]string(nil), req...)
	sort.Strings(sorted)
	if strings.Join(sorted, ",") != "confidence,id,summary,type" {
		t.Errorf("unexpected required fields: %v", sorted)
	}
}

func TestNewJudgeFromEnvDisabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if j := NewJudgeFromEnv(); j != nil {
		t.Error("expected nil judge without an API key")
	}
}

func TestOpenAIJudge(t *testing.T) {
	text := `{"verdicts":[{"id":1,"type":"Banter","confidence":0.8,"summary":"Joking around."},{"id":0,"type":"Quarrel","confidence":0.9,"summary":"Alice wants Bob to stop."}]}`
	srv := responsesServer(t, text, func(body map[string]any) {
		textCfg, _ := body["text"].(map[string]any)
		format, _ := textCfg["format"].(map[string]any)
		if format["name"] != "ConflictVerdicts" || format["strict"] != true {
			t.Errorf("expected strict ConflictVerdicts format, got %v", format)
		}
	})
	defer srv.Close()

	j := NewOpenAIJudge("test-key", "test-model", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	got, err := j.Judge(context.Background(), events())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(got))
	}
	if got[1].ID != 0 || got[1].Type != "Quarrel" || got[1].Confidence != 0.9 {
		t.Errorf("unexpected verdict: %+v", got[1])
	}
}

func TestOpenAIJudgeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	j := NewOpenAIJudge("test-key", "test-model", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if _, err := j.Judge(context.Background(), events()); err == nil {
		t.Error("expected error from failing endpoint")
	}
}
