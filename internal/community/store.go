// Package community keeps the shared collection of coping tips.
package community

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

// DefaultCapacity is the number of most recent tips retained.
const DefaultCapacity = 100

var ErrEmptyTip = errors.New("tip text is empty")

// Journal receives every tip added to the store.
type Journal interface {
	AppendTip(tip domain.Tip) error
}

// Options configures a Store.
type Options struct {
	Capacity int
	Now      func() time.Time
	Random   ports.Random
	Journal  Journal
	// Seed preloads the starter tips.
	Seed bool
}

// Store is an in-memory TipStore safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	tips     []domain.Tip
	capacity int
	now      func() time.Time
	rnd      ports.Random
	journal  Journal
}

func NewStore(opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		capacity: opts.Capacity,
		now:      opts.Now,
		rnd:      opts.Random,
		journal:  opts.Journal,
	}
	if opts.Seed {
		s.tips = seedTips(opts.Now())
	}
	return s
}

func seedTips(now time.Time) []domain.Tip {
	return []domain.Tip{
		{
			ID:        "1",
			Text:      "Taking a 10-minute walk in nature helps me feel more balanced when I'm stressed.",
			Emotion:   domain.EmotionStressed,
			Language:  domain.LanguageEnglish,
			Timestamp: now.Add(-24 * time.Hour),
		},
		{
			ID:        "2",
			Text:      "Playing my favorite upbeat songs while cooking turns a chore into a mood-lifting activity!",
			Emotion:   domain.EmotionHappy,
			Language:  domain.LanguageEnglish,
			Timestamp: now.Add(-12 * time.Hour),
		},
		{
			ID:        "3",
			Text:      "When I'm feeling down, writing three things I'm grateful for helps shift my perspective.",
			Emotion:   domain.EmotionSad,
			Language:  domain.LanguageEnglish,
			Timestamp: now.Add(-6 * time.Hour),
		},
	}
}

// AddTip stores a new tip. The tip is kept even when the journal fails.
func (s *Store) AddTip(text string, emotion domain.Emotion, language domain.Language) (domain.Tip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Tip{}, ErrEmptyTip
	}
	if !emotion.Valid() {
		emotion = domain.EmotionNeutral
	}
	if !language.Valid() {
		language = domain.DefaultLanguage
	}

	tip := domain.Tip{
		ID:        uuid.NewString(),
		Text:      text,
		Emotion:   emotion,
		Language:  language,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	s.tips = append(s.tips, tip)
	if len(s.tips) > s.capacity {
		s.tips = append([]domain.Tip(nil), s.tips[len(s.tips)-s.capacity:]...)
	}
	s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.AppendTip(tip); err != nil {
			return tip, fmt.Errorf("failed to journal tip: %w", err)
		}
	}
	return tip, nil
}

// RandomTip picks a tip in language (falling back to the default language),
// preferring tips tagged with emotion when any exist.
func (s *Store) RandomTip(language domain.Language, emotion domain.Emotion) (*domain.Tip, bool) {
	s.mu.RLock()
	eligible := s.inLanguage(language)
	s.mu.RUnlock()

	if emotion != "" {
		matching := lo.Filter(eligible, func(tip domain.Tip, _ int) bool {
			return tip.Emotion == emotion
		})
		if len(matching) > 0 {
			eligible = matching
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	index := 0
	if s.rnd != nil {
		index = s.rnd.IntN(len(eligible))
	}
	tip := eligible[index]
	return &tip, true
}

// RecentTips returns up to limit tips in language, newest first.
func (s *Store) RecentTips(limit int, language domain.Language) []domain.Tip {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	eligible := s.inLanguage(language)
	s.mu.RUnlock()

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Timestamp.After(eligible[j].Timestamp)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

// Len reports the number of stored tips.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tips)
}

// inLanguage must be called with the read lock held. It returns a copy.
func (s *Store) inLanguage(language domain.Language) []domain.Tip {
	byLanguage := func(lang domain.Language) []domain.Tip {
		return lo.Filter(s.tips, func(tip domain.Tip, _ int) bool {
			return tip.Language == lang
		})
	}
	eligible := byLanguage(language)
	if len(eligible) == 0 {
		eligible = byLanguage(domain.DefaultLanguage)
	}
	return eligible
}
