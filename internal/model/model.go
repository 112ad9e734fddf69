package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Artifact is a trained regression model loaded from disk: an ordered list of
// feature column names plus the regressor itself. It is loaded once at startup
// and is immutable afterwards, so it is safe to share across requests.
type Artifact struct {
	features     []string
	intercept    float64
	coefficients map[string]float64
}

type artifactFile struct {
	Features []string `json:"features"`
	Model    struct {
		Type         string             `json:"type"`
		Intercept    float64            `json:"intercept"`
		Coefficients map[string]float64 `json:"coefficients"`
	} `json:"model"`
}

// Load reads a model artifact from path. It fails on a missing or malformed
// file, on an empty feature list, and on a feature list the coefficient map
// does not fully cover.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var f artifactFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}

	if len(f.Features) == 0 {
		return nil, fmt.Errorf("model artifact %s declares no features", path)
	}
	for _, name := range f.Features {
		if _, ok := f.Model.Coefficients[name]; !ok {
			return nil, fmt.Errorf("model artifact %s has no coefficient for feature %q", path, name)
		}
	}

	return &Artifact{
		features:     f.Features,
		intercept:    f.Model.Intercept,
		coefficients: f.Model.Coefficients,
	}, nil
}

// Features returns the ordered feature column names the model expects.
func (a *Artifact) Features() []string {
	out := make([]string, len(a.features))
	copy(out, a.features)
	return out
}

// Predict applies the regressor to one assembled feature row. The row must
// contain exactly the model's declared features; any missing or extra column
// name is an error rather than a silent reorder.
func (a *Artifact) Predict(row map[string]float64) (float64, error) {
	if len(row) != len(a.features) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(a.features), len(row))
	}

	y := a.intercept
	for _, name := range a.features {
		v, ok := row[name]
		if !ok {
			return 0, fmt.Errorf("assembled row is missing feature %q", name)
		}
		y += a.coefficients[name] * v
	}
	return y, nil
}
