package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	generateTimeout      = 30 * time.Second
)

// Caller is the generation contract the synthesis pipeline depends on.
type Caller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// CredentialSource yields the API credential for a single call. It is
// consulted on every round trip so a rotated credential takes effect
// without a restart.
type CredentialSource interface {
	APIKey() (string, error)
}

// EnvCredentialSource reloads .env and reads the named variable on each call.
type EnvCredentialSource struct {
	Var string
}

func (s EnvCredentialSource) APIKey() (string, error) {
	_ = godotenv.Overload()
	key := strings.TrimSpace(os.Getenv(s.Var))
	if key == "" {
		return "", &Error{Kind: KindCredential, Msg: s.Var + " not configured"}
	}
	return key, nil
}

type GeminiCaller struct {
	creds   CredentialSource
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiCaller(creds CredentialSource, model string) *GeminiCaller {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiCaller{
		creds:   creds,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: generateTimeout},
	}
}

func (g *GeminiCaller) ModelName() string { return g.model }

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	key, err := g.creds.APIKey()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", &Error{Kind: KindTransport, Msg: "marshal request", Err: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(key))
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindTransport, Msg: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Msg: "call generation endpoint", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Error{
			Kind: KindStatus,
			Msg:  fmt.Sprintf("generation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Kind: KindParse, Msg: "decode response envelope", Err: err}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Kind: KindEmpty, Msg: "no candidates in response"}
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
