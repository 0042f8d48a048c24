package vision

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

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// HTTPDetector обращается к сервису с моделью YOLO (sidecar на Python).
// Рамки рисуются локально через BoxRenderer.
type HTTPDetector struct {
	serviceURL string
	modelPath  string
	client     *http.Client
	renderer   *BoxRenderer
}

type predictResponse struct {
	Detections []struct {
		Label      string    `json:"label"`
		Confidence float64   `json:"confidence"`
		Box        []float64 `json:"box"`
	} `json:"detections"`
}

// NewHTTPDetector создаёт клиент детектора
func NewHTTPDetector(serviceURL, modelPath string, timeout time.Duration) *HTTPDetector {
	if serviceURL == "" {
		serviceURL = "http://localhost:5005"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &HTTPDetector{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		modelPath:  modelPath,
		client: &http.Client{
			Timeout: timeout,
		},
		renderer: NewBoxRenderer(),
	}
}

// HealthCheck проверяет, что сервис детектора отвечает
func (d *HTTPDetector) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.serviceURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("detector service not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detector service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// Predict отправляет временный файл загрузки в сервис и разбирает ответ
func (d *HTTPDetector) Predict(ctx context.Context, upload *entity.Upload, threshold float64) (entity.DetectionSet, error) {
	var src io.Reader
	filename := "upload." + upload.Format
	if upload.Path != "" {
		file, err := os.Open(filepath.Clean(upload.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer file.Close()
		src = file
		filename = filepath.Base(upload.Path)
	} else {
		src = bytes.NewReader(upload.Data)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("failed to write conf field: %w", err)
	}
	if d.modelPath != "" {
		if err := writer.WriteField("model", d.modelPath); err != nil {
			return nil, fmt.Errorf("failed to write model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.serviceURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("detector service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	set := make(entity.DetectionSet, 0, len(pr.Detections))
	for i, det := range pr.Detections {
		if det.Label == "" {
			return nil, fmt.Errorf("detection %d: empty label", i)
		}
		if det.Confidence < 0 || det.Confidence > 1 {
			return nil, fmt.Errorf("detection %d: confidence %v out of range", i, det.Confidence)
		}
		if len(det.Box) != 4 {
			return nil, fmt.Errorf("detection %d: box has %d coordinates", i, len(det.Box))
		}
		set = append(set, entity.Detection{
			Label:      det.Label,
			Confidence: det.Confidence,
			Box:        entity.BoundingBox{X1: det.Box[0], Y1: det.Box[1], X2: det.Box[2], Y2: det.Box[3]},
		})
	}

	return set, nil
}

// RenderWithBoxes рисует рамки на декодированном изображении
func (d *HTTPDetector) RenderWithBoxes(ctx context.Context, upload *entity.Upload, set entity.DetectionSet) ([]byte, error) {
	return d.renderer.Render(upload.Image, set)
}

var _ port.DamageDetector = (*HTTPDetector)(nil)
