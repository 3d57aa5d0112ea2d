package recommend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikecheck/internal/domain"
)

var happyPlaylists = []string{
	"Good Vibes on Spotify - upbeat tracks to match your positive mood",
	"Happy Dance Party on Spotify - energetic tunes to keep you moving",
	"Feel Good Classics - timeless hits that spread joy",
	"Sunshine Pop - bright and cheerful melodies",
}

func newTestResolver(t *testing.T, rnd seqRandom) *Resolver {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return NewResolver(catalog, &rnd)
}

func TestDefaultCatalogCoversEveryCell(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	for _, emotion := range domain.Emotions {
		for _, contentType := range domain.ContentTypes {
			assert.NotEmpty(t, catalog[emotion][contentType][domain.LanguageEnglish], "%s/%s", emotion, contentType)
			assert.NotEmpty(t, catalog[emotion][contentType][domain.LanguageHindi], "%s/%s", emotion, contentType)
		}
	}
	assert.Len(t, catalog[domain.EmotionHappy][domain.ContentPlaylist][domain.LanguageSpanish], 2)
}

func TestRecommendHappyPlaylistEnglish(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, seqRandom{values: []int{3}})
	got := r.Recommend(domain.ContentPlaylist, domain.EmotionHappy, domain.LanguageEnglish, nil)
	assert.Contains(t, happyPlaylists, got)
	assert.Equal(t, happyPlaylists[3], got)
}

func TestRecommendFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, seqRandom{})
	got := r.Recommend(domain.ContentPlaylist, domain.EmotionHappy, domain.LanguageFrench, nil)
	assert.Equal(t, happyPlaylists[0], got)
}

func TestRecommendFallsBackToNeutralEmotion(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, seqRandom{})
	got := r.Recommend(domain.ContentBook, domain.Emotion(""), domain.LanguageEnglish, nil)
	assert.Equal(t, "Project Hail Mary by Andy Weir - engaging sci-fi adventure", got)
}

func TestRecommendSkipsRecentUntilExhausted(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, seqRandom{})
	recent := happyPlaylists[:3]
	got := r.Recommend(domain.ContentPlaylist, domain.EmotionHappy, domain.LanguageEnglish, recent)
	assert.Equal(t, happyPlaylists[3], got)

	got = r.Recommend(domain.ContentPlaylist, domain.EmotionHappy, domain.LanguageEnglish, happyPlaylists)
	assert.Contains(t, happyPlaylists, got)
}

func TestRecommendMissingDataMessages(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, seqRandom{})
	assert.Equal(t, notSureMessage, r.Recommend("", domain.EmotionHappy, domain.LanguageEnglish, nil))
	assert.Equal(t,
		fmt.Sprintf(missingCellMessage, "movie"),
		r.Recommend(domain.ContentType("movie"), domain.EmotionHappy, domain.LanguageEnglish, nil),
	)

	sparse := NewResolver(Catalog{
		domain.EmotionNeutral: {domain.ContentBook: {domain.LanguageHindi: {"only hindi"}}},
	}, &seqRandom{})
	assert.Equal(t,
		fmt.Sprintf(emptyListMessage, domain.ContentBook),
		sparse.Recommend(domain.ContentBook, domain.EmotionSad, domain.LanguageFrench, nil),
	)
}

func TestRecommendNeverEmpty(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, seqRandom{values: []int{0, 1, 2, 3}})
	languages := []domain.Language{"en", "hi", "es", "fr", "de", "ja", "zh"}
	for _, emotion := range domain.Emotions {
		for _, contentType := range domain.ContentTypes {
			for _, language := range languages {
				assert.NotEmpty(t, r.Recommend(contentType, emotion, language, nil))
			}
		}
	}
}

func TestRememberBoundsRecent(t *testing.T) {
	t.Parallel()

	var recent []string
	for i := 0; i < 25; i++ {
		recent = Remember(recent, fmt.Sprintf("item-%d", i))
		assert.LessOrEqual(t, len(recent), RecentLimit)
	}
	require.Len(t, recent, RecentLimit)
	assert.Equal(t, "item-15", recent[0])
	assert.Equal(t, "item-24", recent[RecentLimit-1])
}

func TestContentPromptFallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, contentPrompts[domain.ContentPodcast][domain.LanguageSpanish], ContentPrompt(domain.ContentPodcast, domain.LanguageSpanish))
	assert.Equal(t, contentPrompts[domain.ContentBook][domain.LanguageEnglish], ContentPrompt(domain.ContentBook, domain.LanguageGerman))
	assert.Equal(t, genericPrompt, ContentPrompt(domain.ContentType("movie"), domain.LanguageEnglish))
}

func TestEmotionColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "amber", EmotionColor(domain.EmotionHappy))
	assert.Equal(t, "indigo", EmotionColor(domain.EmotionTired))
	assert.Equal(t, "gray", EmotionColor(domain.EmotionNeutral))
}

// seqRandom returns values in order and clamps them to the requested range.
type seqRandom struct {
	values []int
	next   int
}

func (s *seqRandom) IntN(n int) int {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	if v >= n {
		return n - 1
	}
	return v
}
