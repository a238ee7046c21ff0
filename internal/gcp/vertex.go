package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// --- Translator Model Prompts ---
const TranslatorSystemPrompt = "You are a professional document translator. You translate plain text extracted from business documents faithfully, without commentary."
const TranslatorUserPrompt = `Translate the text below from %s to %s.

Rules:
- Output ONLY the translation, with no preamble and no code fences.
- Keep one output line for every input line, in the same order. Keep empty lines empty.
- Do not summarize, merge or drop content. Leave numbers, codes and URLs unchanged.

Text:
%s`

// --- OCR Model Prompts ---
const OCRSystemPrompt = "You are an optical character recognition engine. You transcribe the visible text of a document exactly as printed."
const OCRUserPrompt = `Transcribe all text in the attached document.

Rules:
- Output one printed line of text per output line, in natural reading order.
- Do not translate, correct, summarize or describe images.
- Output ONLY the transcribed text. If the document contains no readable text, output nothing.`

// refusalPhrases mark a model response that must not be treated as content.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// VertexClient holds all pre-configured generative models for our app.
type VertexClient struct {
	TranslatorModel *genai.GenerativeModel
	OCRModel        *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a new client holding the translator and OCR models.
func NewVertexClient(ctx context.Context, projectID, region, translatorModel, ocrModel string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the translator model ---
	translator := baseClient.GenerativeModel(translatorModel)
	translator.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranslatorSystemPrompt)},
	}
	translator.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.2),
	}

	// --- Configure the OCR model ---
	ocr := baseClient.GenerativeModel(ocrModel)
	ocr.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(OCRSystemPrompt)},
	}
	ocr.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "text/plain",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		TranslatorModel: translator,
		OCRModel:        ocr,
		baseClient:      baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// VertexTranslator translates text with the Gemini translator model.
type VertexTranslator struct {
	model *genai.GenerativeModel
}

// NewVertexTranslator wraps the client's translator model.
func NewVertexTranslator(c *VertexClient) *VertexTranslator {
	return &VertexTranslator{model: c.TranslatorModel}
}

// Translate sends text to the model and returns the translated text.
func (t *VertexTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := genai.Text(fmt.Sprintf(TranslatorUserPrompt, sourceLang, targetLang, text))
	resp, err := t.model.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate translation from gemini: %w", err)
	}

	translated := extractText(resp)
	if err := checkRefusal(translated); err != nil {
		return "", err
	}
	if translated == "" {
		return "", fmt.Errorf("gemini returned an empty translation for %d bytes of input", len(text))
	}
	return translated, nil
}

// VertexOCR recognizes text in documents with the Gemini OCR model.
type VertexOCR struct {
	model *genai.GenerativeModel
}

// NewVertexOCR wraps the client's OCR model.
func NewVertexOCR(c *VertexClient) *VertexOCR {
	return &VertexOCR{model: c.OCRModel}
}

// DetectText returns one LINE block per transcribed line, in the order the model produced them.
func (o *VertexOCR) DetectText(ctx context.Context, data []byte, mimeType string) ([]models.TextBlock, error) {
	doc := genai.Blob{MIMEType: mimeType, Data: data}
	resp, err := o.model.GenerateContent(ctx, doc, genai.Text(OCRUserPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate OCR content from gemini: %w", err)
	}

	transcript := extractText(resp)
	if err := checkRefusal(transcript); err != nil {
		return nil, err
	}
	return linesToBlocks(transcript), nil
}

// linesToBlocks turns a newline-separated transcript into LINE blocks, skipping blank lines.
func linesToBlocks(transcript string) []models.TextBlock {
	var blocks []models.TextBlock
	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, models.TextBlock{Type: models.BlockLine, Text: line})
	}
	return blocks
}

// extractText concatenates the text parts of the first candidate and strips code fences.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var content strings.Builder
	var textPartsFound int
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			content.WriteString(string(txt))
			textPartsFound++
		}
	}
	if textPartsFound > 1 {
		slog.Warn("Gemini response contained multiple text parts; they have been concatenated.", "parts", textPartsFound)
	}
	return stripFences(content.String())
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.Trim(s, "\n")
}

func checkRefusal(content string) error {
	lower := strings.ToLower(content)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			slog.Error("LLM refusal detected.", "response", content)
			return fmt.Errorf("gemini response indicates refusal: %q", phrase)
		}
	}
	return nil
}
