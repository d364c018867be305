package llm

import (
	"fmt"
	"strings"

	"github.com/paperpulse/paperpulse/engine/domain"
	"google.golang.org/genai"
)

func relevancePrompt(s *domain.Signal) string {
	content := s.Content
	if len(content) > 500 {
		content = content[:500]
	}
	return strings.TrimSpace(fmt.Sprintf(`
You are evaluating whether this external signal is relevant to Deep Learning/Computer Vision research.

Title: %s
Content: %s
Source: %s

Is this content:
1. Related to recent DL/CV research developments?
2. Discussing technical advances (not just news/hype)?
3. Worth showing to a PhD researcher?

Respond with JSON only (no markdown):
{
  "relevant": true or false,
  "score": 0.0-1.0,
  "reason": "brief explanation"
}
`, s.Title, content, s.Author))
}

func relevanceSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"relevant": {Type: genai.TypeBoolean},
			"score":    {Type: genai.TypeNumber, Description: "Relevance in [0,1]."},
			"reason":   {Type: genai.TypeString, Description: "Brief explanation."},
		},
		Required: []string{"relevant", "score", "reason"},
	}
}

func analysisPrompt(title, abstract string, authors []string, strict bool) string {
	strictInstruction := ""
	if strict {
		strictInstruction = "\n\nIMPORTANT: Respond with ONLY valid JSON, no additional text or markdown formatting."
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are an expert research assistant helping a PhD researcher in Deep Learning and Computer Vision quickly understand new papers.

Analyze this paper and provide a concise, high-level summary:

Title: %s
Authors: %s
Abstract: %s

Provide the following analysis:

1. **hook** (1-2 sentences MAX): A compelling, punchy reason to read this paper. Make it intriguing and casual - like you're telling a colleague why they should check this out. Focus on the "wow factor" or the key insight.

2. **whyRead** (2-3 sentences): A quick decision-maker - why should a DL/CV researcher read this paper? What makes it interesting or important?

3. **motivation** (2-3 sentences): What problem or limitation does this paper address? Why does this paper exist?

4. **contribution** (2-3 sentences): What is the main contribution or novelty? Explain the core idea at a high level, without mathematical details.

5. **context** (2-3 sentences): How does this fit into the current Deep Learning/Computer Vision research landscape? What trends or areas does it relate to?

6. **keyContributions** (array of 3-5 strings): List the key technical contributions as bullet points.

7. **relevanceScore** (number 0-1): How relevant is this to current DL/CV research? (0.0 = niche/incremental, 1.0 = breakthrough/highly relevant)

Respond in JSON format with these exact keys: hook, whyRead, motivation, contribution, context, keyContributions (array of strings), relevanceScore (number).%s
`, title, strings.Join(authors, ", "), abstract, strictInstruction))
}

func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"hook":         {Type: genai.TypeString},
			"whyRead":      {Type: genai.TypeString},
			"motivation":   {Type: genai.TypeString},
			"contribution": {Type: genai.TypeString},
			"context":      {Type: genai.TypeString},
			"keyContributions": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"relevanceScore": {Type: genai.TypeNumber},
		},
		Required: []string{"hook", "whyRead", "motivation", "contribution", "context", "keyContributions", "relevanceScore"},
	}
}
