package llm

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

func TestGeminiAliases(t *testing.T) {
	tests := map[string]string{
		"gemini-flash":          "gemini-2.5-flash",
		"gemini-flash-lite":     "gemini-2.5-flash-lite",
		"gemini-pro":            "gemini-2.5-pro",
		"gemini-2.0-flash-lite": "gemini-2.0-flash-lite",
	}
	for in, want := range tests {
		if got := resolveModel(in, geminiAliases); got != want {
			t.Errorf("resolveModel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	// Decoded from JSON, as definitions loaded from disk would be.
	var def map[string]any
	err := json.Unmarshal([]byte(`{
		"type": "object",
		"required": ["questions"],
		"properties": {
			"chosenTitle": {"type": ["string", "null"]},
			"questions": {
				"type": "array",
				"minItems": 5,
				"maxItems": 10,
				"items": {
					"type": "object",
					"required": ["question", "options", "answerIndex"],
					"properties": {
						"question": {"type": "string", "minLength": 1},
						"options": {"type": "array", "items": {"type": "string"}, "minItems": 4, "maxItems": 4},
						"answerIndex": {"type": "integer", "minimum": 0, "maximum": 3},
						"difficulty": {"type": "string", "enum": ["Easy", "Medium", "Hard"]}
					}
				}
			}
		}
	}`), &def)
	if err != nil {
		t.Fatal(err)
	}

	s := geminiSchema(def)

	if s.Type != genai.TypeObject || len(s.Required) != 1 {
		t.Fatalf("root = %+v", s)
	}
	if strings.Join(s.PropertyOrdering, ",") != "chosenTitle,questions" {
		t.Errorf("PropertyOrdering = %v", s.PropertyOrdering)
	}

	title := s.Properties["chosenTitle"]
	if title.Type != genai.TypeString || title.Nullable == nil || !*title.Nullable {
		t.Errorf("chosenTitle = %+v, want nullable string", title)
	}

	questions := s.Properties["questions"]
	if questions.MinItems == nil || *questions.MinItems != 5 || questions.MaxItems == nil || *questions.MaxItems != 10 {
		t.Errorf("questions bounds = %v..%v", questions.MinItems, questions.MaxItems)
	}

	item := questions.Items
	if item == nil || len(item.Required) != 3 {
		t.Fatalf("question item = %+v", item)
	}
	idx := item.Properties["answerIndex"]
	if idx.Type != genai.TypeInteger || idx.Minimum == nil || *idx.Minimum != 0 || idx.Maximum == nil || *idx.Maximum != 3 {
		t.Errorf("answerIndex = %+v", idx)
	}
	if got := item.Properties["question"].MinLength; got == nil || *got != 1 {
		t.Errorf("question minLength = %v", got)
	}
	if got := item.Properties["difficulty"].Enum; len(got) != 3 {
		t.Errorf("difficulty enum = %v", got)
	}
	if item.Properties["options"].Items.Type != genai.TypeString {
		t.Errorf("options items = %+v", item.Properties["options"].Items)
	}
}

func newGeminiStub(t *testing.T, status int, reply string) (*GeminiProvider, *[]byte, *string) {
	t.Helper()
	var body []byte
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(t.Context(), GeminiConfig{APIKey: "test-key", Model: "gemini-flash", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	return p, &body, &path
}

func TestGeminiProvider_Generate(t *testing.T) {
	p, body, path := newGeminiStub(t, http.StatusOK, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"questions\":[]}"}]}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 8, "totalTokenCount": 20},
		"modelVersion": "gemini-2.5-flash"
	}`)

	resp, err := p.Generate(t.Context(), Request{
		System:    "You return only valid JSON.",
		Messages:  UserMessage("Create a quiz about tides."),
		JSON:      true,
		MaxTokens: 1200,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Content) != `{"questions":[]}` {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 20 || resp.Model != "gemini-2.5-flash" || resp.StopReason != StopEnd {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.HasSuffix(*path, "gemini-2.5-flash:generateContent") {
		t.Errorf("path = %q", *path)
	}
	if got := gjson.GetBytes(*body, "generationConfig.responseMimeType").String(); got != "application/json" {
		t.Errorf("responseMimeType = %q", got)
	}
}

func TestGeminiProvider_PermissionDenied(t *testing.T) {
	p, _, _ := newGeminiStub(t, http.StatusForbidden,
		`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)

	_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi")})
	var nc *ErrNotConfigured
	if !errors.As(err, &nc) || nc.Provider != "gemini" {
		t.Fatalf("err = %v, want ErrNotConfigured for gemini", err)
	}
}
