package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"gate-service/internal/config"
	"gate-service/internal/utils"
)

// Extraction is the outcome of a plate-text extraction attempt. When the
// external service fails or finds no text, Available is false; callers decide
// how to degrade (the scan handler substitutes "UNKNOWN" on the wire).
type Extraction struct {
	Text      string
	Available bool
}

type ocrParsedResult struct {
	ParsedText string `json:"ParsedText"`
}

type ocrResponse struct {
	ParsedResults         []ocrParsedResult `json:"ParsedResults"`
	IsErroredOnProcessing bool              `json:"IsErroredOnProcessing"`
}

// OCRClient calls the external text-extraction endpoint. Engine mode 2 is
// requested because it handles alphanumeric strings like number plates better.
type OCRClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewOCRClient(cfg *config.Config, log zerolog.Logger) *OCRClient {
	return &OCRClient{
		apiURL: cfg.OCR.APIURL,
		apiKey: cfg.OCR.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.OCR.Timeout,
		},
		log: log,
	}
}

// ExtractPlateText uploads the image at imagePath and returns the cleaned
// detected text. It never returns an error: every failure mode degrades to an
// unavailable Extraction so the scan flow can proceed without the image.
// The caller owns the temporary file and its cleanup.
func (c *OCRClient) ExtractPlateText(ctx context.Context, imagePath string) Extraction {
	body, contentType, err := c.buildRequestBody(imagePath)
	if err != nil {
		c.log.Warn().Err(err).Str("path", imagePath).Msg("ocr request build failed")
		return Extraction{}
	}

	respBody, err := c.post(ctx, body, contentType)
	if err != nil {
		c.log.Warn().Err(err).Msg("ocr call failed")
		return Extraction{}
	}

	var parsed ocrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.log.Warn().Err(err).Msg("ocr response malformed")
		return Extraction{}
	}

	if parsed.IsErroredOnProcessing || len(parsed.ParsedResults) == 0 {
		c.log.Warn().Msg("ocr returned no parsed results")
		return Extraction{}
	}

	text := utils.CleanDetectedText(parsed.ParsedResults[0].ParsedText)
	if text == "" {
		return Extraction{}
	}

	return Extraction{Text: text, Available: true}
}

func (c *OCRClient) buildRequestBody(imagePath string) ([]byte, string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"apikey":            c.apiKey,
		"language":          "eng",
		"isOverlayRequired": "false",
		"OCREngine":         "2",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy image: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func (c *OCRClient) post(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	var lastErr error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("request aborted: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ocr service returned status %d: %s", resp.StatusCode, string(respBody))
		}

		return respBody, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}
