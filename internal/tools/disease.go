// Why this file: ./internal/tools/disease.go
// This sends a plant image to the disease-classification service and maps
// the predicted class onto a treatment advisory. Classes arrive in the
// Crop___Disease_name format; matching against the advisory database is
// done on a normalized form so "Early_blight" still hits "blight".
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yourusername/krishimitra-assistant/models"
)

// DiseaseClient calls the plant-disease classification service.
type DiseaseClient struct {
	baseURL string
	timeout time.Duration
}

// NewDiseaseClient creates a disease-detection client. The timeout is
// generous because the model host cold-starts on the free tier.
func NewDiseaseClient(baseURL string) *DiseaseClient {
	if baseURL == "" {
		baseURL = "https://plant-disease-api-yt7l.onrender.com/predict"
	}
	return &DiseaseClient{baseURL: baseURL, timeout: 120 * time.Second}
}

// diseaseAdvisory maps disease name fragments onto treatment advice.
var diseaseAdvisory = map[string][]string{
	"healthy": {
		"Your crop appears healthy. Continue current care practices.",
		"Monitor regularly for early signs of disease.",
		"Maintain proper spacing and ventilation.",
	},
	"redrot": {
		"Remove and burn infected canes immediately to prevent spread.",
		"Apply carbendazim or propiconazole fungicide to healthy canes.",
		"Avoid waterlogging and improve field drainage.",
		"Use disease-resistant sugarcane varieties like CoC 671, CoC 92061.",
	},
	"mosaic": {
		"Remove and destroy virus-infected plants.",
		"Control aphid vectors using neem oil or imidacloprid.",
		"Use virus-free, disease-resistant seed material.",
	},
	"rust": {
		"Apply sulfur-based fungicide or mancozeb at early infection stage.",
		"Remove infected leaves and dispose properly.",
		"Ensure adequate spacing for air circulation.",
	},
	"yellow": {
		"Improve soil drainage to prevent yellowing.",
		"Apply iron sulfate or zinc sulfate foliar spray.",
		"Check soil pH and adjust if needed (pH 6.0-7.5).",
	},
	"blight": {
		"Remove and destroy infected leaves immediately.",
		"Apply copper-based fungicide (Bordeaux mixture).",
		"Avoid overhead irrigation to reduce leaf wetness.",
		"Improve air circulation around plants.",
	},
	"spot": {
		"Prune affected leaves and dispose away from field.",
		"Apply appropriate fungicide (Mancozeb or Chlorothalonil).",
		"Avoid splashing water on leaves during irrigation.",
		"Practice crop rotation next season.",
	},
	"bacterial": {
		"Remove infected plants immediately to prevent spread.",
		"Apply copper-based bactericide.",
		"Disinfect tools between plants.",
	},
	"virus": {
		"Remove and destroy infected plants immediately.",
		"Control insect vectors (aphids, whiteflies) with neem oil.",
		"Use virus-free seeds and transplants.",
	},
	"mold": {
		"Improve air circulation around plants.",
		"Reduce humidity through proper spacing.",
		"Apply fungicide (Mancozeb) as preventive measure.",
	},
	"blast": {
		"Apply Tricyclazole 75% WP or Isoprothiolane 40% EC.",
		"Remove and destroy infected plant parts.",
		"Avoid excessive nitrogen fertilization.",
	},
	"downy": {
		"Apply Metalaxyl + Mancozeb fungicide.",
		"Remove infected leaves showing downy growth.",
		"Reduce humidity and improve air circulation.",
	},
}

// defaultDiseaseAdvisory is used when no specific advisory matches.
var defaultDiseaseAdvisory = []string{
	"Consult local agricultural extension officer for specific treatment.",
	"Send sample to agricultural laboratory for detailed analysis.",
	"Document symptoms with photos for better diagnosis.",
	"Maintain field hygiene and proper crop management.",
}

// AdvisoryForDisease returns treatment advice for a disease class name.
func AdvisoryForDisease(disease string) []string {
	normalized := normalizeDiseaseName(disease)
	for key, advisory := range diseaseAdvisory {
		keyNorm := normalizeDiseaseName(key)
		if strings.Contains(normalized, keyNorm) || strings.Contains(keyNorm, normalized) {
			return advisory
		}
	}
	return defaultDiseaseAdvisory
}

func normalizeDiseaseName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}

type diseaseAPIResponse struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// DetectDisease classifies the plant image and returns treatment advice.
func (d *DiseaseClient) DetectDisease(ctx context.Context, imagePath, cropType string) models.ToolResult {
	if cropType == "" {
		cropType = "unknown"
	}
	cropType = strings.ToLower(cropType)

	file, err := os.Open(imagePath)
	if err != nil {
		return models.ToolResult{
			Type:       "disease",
			Summary:    fmt.Sprintf("Image file not found: %s", imagePath),
			Details:    map[string]interface{}{"error": "File not found", "image_path": imagePath},
			Advisory:   []string{"Check image path and try again"},
			Confidence: 0,
			Source:     "ML Disease Detection Model",
		}
	}
	defer file.Close()

	result, err := d.post(ctx, file, cropType)
	if err != nil {
		return models.ToolResult{
			Type:    "disease",
			Summary: fmt.Sprintf("Failed to detect disease in %s", cropType),
			Details: map[string]interface{}{"error": err.Error(), "crop": cropType},
			Advisory: []string{
				"Check image quality (clear, well-lit photo of affected area)",
				"Ensure image shows disease symptoms clearly",
				"Try again after some time (API may be starting up)",
				"Consult local agricultural expert if problem persists",
			},
			Confidence: 0,
			Source:     "ML Disease Detection Model",
		}
	}

	// Class format: Crop___Disease_name
	diseaseName := result.Class
	if parts := strings.Split(result.Class, "___"); len(parts) > 1 {
		diseaseName = titleWord(strings.ReplaceAll(parts[len(parts)-1], "_", " "))
	}
	isHealthy := strings.Contains(strings.ToLower(result.Class), "healthy")

	summary := fmt.Sprintf("%s detected in %s", diseaseName, titleWord(cropType))
	if isHealthy {
		summary = fmt.Sprintf("%s plant is healthy", titleWord(cropType))
	}

	return models.ToolResult{
		Type:    "disease",
		Summary: summary,
		Details: map[string]interface{}{
			"crop":                cropType,
			"disease":             diseaseName,
			"full_classification": result.Class,
			"is_healthy":          isHealthy,
		},
		Advisory:   AdvisoryForDisease(result.Class),
		Confidence: result.Confidence,
		Source:     "ML Disease Detection Model",
	}
}

// post uploads the image as multipart form data.
func (d *DiseaseClient) post(ctx context.Context, image io.Reader, cropType string) (*diseaseAPIResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: err}
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: err}
	}
	if err := writer.WriteField("crop", cropType); err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, &body)
	if err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CollaboratorError{
			Service: "disease",
			Err:     fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var result diseaseAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &CollaboratorError{Service: "disease", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &result, nil
}
