package guideline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoguard/promoscan/internal/models"
)

const corpusFixture = `{
  "metadata": {
    "version": "2026.1",
    "source": "Fair Lending Advertising Code",
    "last_updated": "2026-01-15"
  },
  "guidelines": {
    "interest_rate_disclosure": [
      {
        "id": "IRD-001",
        "title": "APR must be disclosed",
        "description": "Rate mentions require the annual percentage rate",
        "applicable_context": "loan advertisement",
        "violation_keywords": ["lowest interest"],
        "required_elements": ["annual percentage rate"],
        "severity": "high",
        "weight": 0.5
      },
      {
        "id": "IRD-002",
        "title": "No guaranteed approval",
        "severity": "made-up-severity",
        "weight": 0.5
      }
    ]
  },
  "violation_patterns": {
    "high_risk_phrases": ["risk free"],
    "medium_risk_phrases": ["instant"],
    "required_disclaimers": ["terms and conditions apply"]
  },
  "scoring_methodology": {
    "base_score": 100,
    "severity_deductions": {"critical": -25, "high": -15, "medium": -8, "low": -3},
    "missing_element_penalty": -10,
    "category_weights": {"interest_rate_disclosure": 1.0}
  }
}`

func TestParseCorpus_Normalization(t *testing.T) {
	set, err := parseCorpus([]byte(corpusFixture))
	require.NoError(t, err)

	assert.Equal(t, "2026.1", set.Metadata.Version)
	assert.Equal(t, 2, set.Metadata.TotalRules, "total is recomputed, never trusted from the file")

	rules := set.Guidelines["interest_rate_disclosure"]
	require.Len(t, rules, 2)
	assert.Equal(t, "interest_rate_disclosure", rules[0].Category, "category filled from the group key")
	assert.Equal(t, models.SeverityHigh, rules[0].Severity)
	assert.Equal(t, models.SeverityMedium, rules[1].Severity, "unknown severity falls back to medium")

	assert.InDelta(t, 80, set.Methodology.CompliantThreshold, 0.001)
	assert.InDelta(t, 50, set.Methodology.ReviewThreshold, 0.001)
}

func TestParseCorpus_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed json", data: `{"guidelines": `},
		{name: "no rules", data: `{"guidelines": {}}`},
		{name: "empty categories", data: `{"guidelines": {"interest_rate_disclosure": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCorpus([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guidelines.json")
	require.NoError(t, os.WriteFile(path, []byte(corpusFixture), 0o644))

	source := NewFileSource(path)
	set, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Metadata.TotalRules)
	assert.Contains(t, source.Describe(), "guidelines.json")
}

func TestFileSource_Missing(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	_, err := source.Load(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(corpusFixture))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, 0)
	set, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Metadata.TotalRules)
}

func TestHTTPSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, 0)
	_, err := source.Load(context.Background())
	assert.Error(t, err)
}

func TestStaticSource_Load(t *testing.T) {
	source := NewStaticSource(testCorpus())
	set, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, set.Metadata.TotalRules)

	source.Replace(nil)
	_, err = source.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}