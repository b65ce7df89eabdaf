// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/recall/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProfileExtractor implements ai.ProfileExtractor using OpenAI-compatible
// chat APIs.
type ProfileExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// profilePayload matches the JSON structure expected from the LLM.
type profilePayload struct {
	Interests []string `json:"interests"`
	Concerns  []string `json:"concerns"`
}

// newProfileExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newProfileExtractor(config *ai.Config) (*ProfileExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ProfileExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewProfileExtractor creates a new profile extractor using the provided
// configuration.
//
// Returns ai.ProfileExtractor interface to enforce abstraction.
func NewProfileExtractor(config *ai.Config) (ai.ProfileExtractor, error) {
	return newProfileExtractor(config)
}

// ExtractProfile derives interests and concerns from conversation text using
// an LLM. Malformed JSON responses are retried up to 3 times.
func (e *ProfileExtractor) ExtractProfile(ctx context.Context, text string) (*ai.ExtractedProfile, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(profilePrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	var payload profilePayload
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return &ai.ExtractedProfile{}, nil
		}

		responseText := repairJSON(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(responseText), &payload); err != nil {
			lastErr = err
			e.logger.Warn("error parsing profile response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse profile response after retries", "err", lastErr)
		return nil, lastErr
	}

	profile := &ai.ExtractedProfile{
		Interests: normalizeTraits(payload.Interests),
		Concerns:  normalizeTraits(payload.Concerns),
	}

	e.logger.Debug("extracted profile",
		"interests", len(profile.Interests),
		"concerns", len(profile.Concerns))
	return profile, nil
}

// normalizeTraits lowercases, trims and deduplicates extracted trait strings.
func normalizeTraits(traits []string) []string {
	seen := make(map[string]bool, len(traits))
	out := make([]string, 0, len(traits))
	for _, t := range traits {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
