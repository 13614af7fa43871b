package ai

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
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// PatientAttrs carries the clinical attributes forwarded to the
// prediction service alongside the X-ray image
type PatientAttrs struct {
	Sex          int
	Height       float64
	AgeMonths    int
	FatherHeight *float64
	MotherHeight *float64
}

// Prediction is the structured result returned by the prediction service.
// BoneAge is free text in the "<N>Y <M>M" format; Raw keeps the full data
// payload for storage.
type Prediction struct {
	BoneAge string
	Raw     json.RawMessage
}

// Client calls the external bone-age prediction service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client with the provided base URL. The timeout
// is generous because the prediction service may take a long time per
// image.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type predictData struct {
	BoneAge string `json:"BoneAge"`
}

// Predict uploads the image and patient attributes as multipart form data
// and returns the service's prediction
func (c *Client) Predict(ctx context.Context, imagePath string, attrs PatientAttrs) (*Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}

	fields := map[string]string{
		"sex":        strconv.Itoa(attrs.Sex),
		"height":     strconv.FormatFloat(attrs.Height, 'f', -1, 64),
		"age_months": strconv.Itoa(attrs.AgeMonths),
	}
	if attrs.FatherHeight != nil {
		fields["father_height"] = strconv.FormatFloat(*attrs.FatherHeight, 'f', -1, 64)
	}
	if attrs.MotherHeight != nil {
		fields["mother_height"] = strconv.FormatFloat(*attrs.MotherHeight, 'f', -1, 64)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}
	if !decoded.Success {
		if decoded.Message != "" {
			return nil, fmt.Errorf("prediction failed: %s", decoded.Message)
		}
		return nil, fmt.Errorf("prediction failed")
	}

	var data predictData
	if err := json.Unmarshal(decoded.Data, &data); err != nil {
		return nil, fmt.Errorf("decode prediction data: %w", err)
	}

	return &Prediction{
		BoneAge: data.BoneAge,
		Raw:     decoded.Data,
	}, nil
}
