// Package predictor scores watchlist tickers with a shared random-forest
// classifier exported as a JSON artifact.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/httputil"
)

// TreeNode is one node of a decision tree. Feature is -1 on leaves, where
// Value holds the leaf's probability of an up move.
type TreeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Model is the deserialized classifier artifact. FeatureNames fixes the
// input vector's order; Importances is aligned with it.
type Model struct {
	FeatureNames []string     `json:"feature_names"`
	Importances  []float64    `json:"importances"`
	Trees        [][]TreeNode `json:"trees"`
}

func (m *Model) validate() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("artifact has no feature names")
	}
	if len(m.Importances) != len(m.FeatureNames) {
		return fmt.Errorf("importances length %d does not match %d features",
			len(m.Importances), len(m.FeatureNames))
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("artifact has no trees")
	}
	for ti, tree := range m.Trees {
		if len(tree) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, node := range tree {
			if node.Feature < 0 {
				continue
			}
			if node.Feature >= len(m.FeatureNames) {
				return fmt.Errorf("tree %d node %d references feature %d of %d",
					ti, ni, node.Feature, len(m.FeatureNames))
			}
			if node.Left < 0 || node.Left >= len(tree) || node.Right < 0 || node.Right >= len(tree) {
				return fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
			}
		}
	}
	return nil
}

// ProbUp averages the leaf probabilities of every tree for one feature
// vector. The vector must be in FeatureNames order.
func (m *Model) ProbUp(values []float64) (float64, error) {
	if len(values) != len(m.FeatureNames) {
		return 0, fmt.Errorf("vector length %d does not match %d features",
			len(values), len(m.FeatureNames))
	}

	sum := 0.0
	for _, tree := range m.Trees {
		node := tree[0]
		for node.Feature >= 0 {
			if values[node.Feature] <= node.Threshold {
				node = tree[node.Left]
			} else {
				node = tree[node.Right]
			}
		}
		sum += node.Value
	}
	return sum / float64(len(m.Trees)), nil
}

// Loader fetches and caches the model artifact from a local path or an
// HTTP(S) URL. A successful load is cached for the process lifetime; a
// failed load is retried on the next request.
type Loader struct {
	location string
	client   *httputil.Client
	log      zerolog.Logger

	mu    sync.Mutex
	model *Model
}

func NewLoader(location string, client *httputil.Client, log zerolog.Logger) *Loader {
	return &Loader{
		location: location,
		client:   client,
		log:      log.With().Str("component", "predictor").Logger(),
	}
}

// Load returns the cached model or fetches it from the configured location.
func (l *Loader) Load(ctx context.Context) (*Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.model != nil {
		return l.model, nil
	}

	raw, err := l.fetch(ctx)
	if err != nil {
		return nil, &contracts.ModelLoadError{Location: l.location, Err: err}
	}

	var model Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, &contracts.ModelLoadError{Location: l.location, Err: err}
	}
	if err := model.validate(); err != nil {
		return nil, &contracts.ModelLoadError{Location: l.location, Err: err}
	}

	l.log.Info().
		Str("location", l.location).
		Int("features", len(model.FeatureNames)).
		Int("trees", len(model.Trees)).
		Msg("model artifact loaded")

	l.model = &model
	return l.model, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(l.location, "http://") || strings.HasPrefix(l.location, "https://") {
		resp, err := l.client.Get(ctx, l.location)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(l.location)
}
