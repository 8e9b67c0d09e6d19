package guideline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/promoguard/promoscan/internal/models"
)

var (
	// ErrEmptyCorpus is returned when a loaded corpus contains no rules.
	// The system must not serve analyses with zero rules.
	ErrEmptyCorpus = errors.New("guideline corpus contains no rules")
)

// Source loads a guideline corpus from somewhere external
type Source interface {
	Load(ctx context.Context) (*models.GuidelineSet, error)
	Describe() string
}

// FileSource loads the corpus from a JSON file on disk
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed corpus source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and parses the corpus file
func (s *FileSource) Load(_ context.Context) (*models.GuidelineSet, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guideline corpus: %w", err)
	}
	return parseCorpus(data)
}

// Describe returns a human-readable source description
func (s *FileSource) Describe() string {
	return "file:" + s.Path
}

// HTTPSource fetches the corpus from a remote URL
type HTTPSource struct {
	URL    string
	client *http.Client
}

// NewHTTPSource creates a remote corpus source with the given fetch timeout
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		URL:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Load fetches and parses the corpus document
func (s *HTTPSource) Load(ctx context.Context) (*models.GuidelineSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build corpus request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guideline corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("guideline corpus fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus response: %w", err)
	}
	return parseCorpus(data)
}

// Describe returns a human-readable source description
func (s *HTTPSource) Describe() string {
	return "http:" + s.URL
}

// StaticSource serves a fixed in-memory corpus. Used by tests and by
// callers that assemble a GuidelineSet programmatically.
type StaticSource struct {
	Set *models.GuidelineSet
}

// NewStaticSource wraps an in-memory guideline set
func NewStaticSource(set *models.GuidelineSet) *StaticSource {
	return &StaticSource{Set: set}
}

// Load normalizes and returns the wrapped set
func (s *StaticSource) Load(_ context.Context) (*models.GuidelineSet, error) {
	if s.Set == nil {
		return nil, ErrEmptyCorpus
	}
	set := *s.Set
	if err := normalize(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Replace swaps the wrapped set so the next Load serves new content
func (s *StaticSource) Replace(set *models.GuidelineSet) {
	s.Set = set
}

// Describe returns a human-readable source description
func (s *StaticSource) Describe() string {
	return "static"
}

// parseCorpus decodes a corpus document and normalizes it
func parseCorpus(data []byte) (*models.GuidelineSet, error) {
	var set models.GuidelineSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse guideline corpus: %w", err)
	}
	if err := normalize(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// normalize fills derived fields and applies defaults: rules inherit their
// category key, metadata totals are recomputed, and level thresholds
// default to 80/50 when the document omits them.
func normalize(set *models.GuidelineSet) error {
	total := 0
	for category, rules := range set.Guidelines {
		for i := range rules {
			if rules[i].Category == "" {
				rules[i].Category = category
			}
			if !rules[i].Severity.Valid() {
				rules[i].Severity = models.SeverityMedium
			}
		}
		set.Guidelines[category] = rules
		total += len(rules)
	}
	if total == 0 {
		return ErrEmptyCorpus
	}
	set.Metadata.TotalRules = total

	if set.Methodology.CompliantThreshold == 0 {
		set.Methodology.CompliantThreshold = 80
	}
	if set.Methodology.ReviewThreshold == 0 {
		set.Methodology.ReviewThreshold = 50
	}
	return nil
}
