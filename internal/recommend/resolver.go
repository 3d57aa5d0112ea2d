// Package recommend resolves mood-appropriate content suggestions.
package recommend

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

// RecentLimit bounds the recently recommended list kept by callers.
const RecentLimit = 10

const (
	notSureMessage     = "I'm not sure what to recommend right now. Would you like to try something specific?"
	missingCellMessage = "I don't have any %s recommendations at the moment. Would you like to try something else?"
	emptyListMessage   = "I don't have any %s recommendations for you right now. Would you like to try something else?"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog maps emotion, content type and language to candidate items.
type Catalog map[domain.Emotion]map[domain.ContentType]map[domain.Language][]string

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse recommendation catalog: %w", err)
	}
	return catalog, nil
}

var defaultCatalog = sync.OnceValues(func() (Catalog, error) {
	return ParseCatalog(catalogYAML)
})

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (Catalog, error) {
	return defaultCatalog()
}

// Resolver picks one recommendation per request.
type Resolver struct {
	catalog Catalog
	rnd     ports.Random
}

func NewResolver(catalog Catalog, rnd ports.Random) *Resolver {
	return &Resolver{catalog: catalog, rnd: rnd}
}

// Recommend returns one item for the request, avoiding recent items while
// other candidates remain. It never returns an empty string.
func (r *Resolver) Recommend(
	contentType domain.ContentType,
	emotion domain.Emotion,
	language domain.Language,
	recent []string,
) string {
	if contentType == "" {
		return notSureMessage
	}

	cells, ok := r.catalog[emotion]
	if !ok {
		cells = r.catalog[domain.EmotionNeutral]
	}
	lists, ok := cells[contentType]
	if !ok {
		return fmt.Sprintf(missingCellMessage, contentType)
	}

	options := lists[language]
	if len(options) == 0 {
		options = lists[domain.DefaultLanguage]
	}
	if len(options) == 0 {
		return fmt.Sprintf(emptyListMessage, contentType)
	}

	available := lo.Filter(options, func(option string, _ int) bool {
		return !lo.Contains(recent, option)
	})
	if len(available) == 0 {
		available = options
	}

	return available[r.rnd.IntN(len(available))]
}

// Remember appends item to recent and evicts the oldest entries beyond RecentLimit.
func Remember(recent []string, item string) []string {
	next := append(append([]string(nil), recent...), item)
	if len(next) > RecentLimit {
		next = lo.Drop(next, len(next)-RecentLimit)
	}
	return next
}
