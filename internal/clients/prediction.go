package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrPredictionFailed marks any failure of the spoilage-regression service.
// Predictions are mandatory for every transferred row, so the pipeline
// aborts the run on it.
var ErrPredictionFailed = errors.New("prediction failed")

// FeatureRow is one reading's feature vector, in the column order the model
// was trained on.
type FeatureRow struct {
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	GasLevel     float64 `json:"gas_level"`
	FoodCategory string  `json:"jenis_makanan"`
}

type predictRequest struct {
	Rows []FeatureRow `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error"`
}

// PredictionClient calls the model-serving endpoint that wraps the spoilage
// regressor. The model is a pure batch function: one prediction per input
// row, same order.
type PredictionClient struct {
	baseURL string
	http    *http.Client
}

func NewPredictionClient(baseURL string, timeout time.Duration) *PredictionClient {
	return &PredictionClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *PredictionClient) PredictSpoilage(ctx context.Context, rows []FeatureRow) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(predictRequest{Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrPredictionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrPredictionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrPredictionFailed, resp.StatusCode, raw)
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrPredictionFailed, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrPredictionFailed, out.Error)
	}
	if len(out.Predictions) != len(rows) {
		return nil, fmt.Errorf("%w: got %d predictions for %d rows", ErrPredictionFailed, len(out.Predictions), len(rows))
	}

	return out.Predictions, nil
}
