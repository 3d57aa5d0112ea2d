// Package preferences holds the user's in-memory preferences.
package preferences

import (
	"errors"
	"strings"
	"sync"

	"mikecheck/internal/domain"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrContactName         = errors.New("emergency contact name is required")
)

// Store is a PreferenceStore safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	prefs domain.Preferences
}

func NewStore(language domain.Language) *Store {
	if !language.Valid() {
		language = domain.DefaultLanguage
	}
	return &Store{prefs: domain.Preferences{Language: language}}
}

// Get returns a copy of the current preferences.
func (s *Store) Get() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.prefs
	if s.prefs.EmergencyContact != nil {
		contact := *s.prefs.EmergencyContact
		out.EmergencyContact = &contact
	}
	out.LikedContent = cloneLists(s.prefs.LikedContent)
	out.DislikedContent = cloneLists(s.prefs.DislikedContent)
	return out
}

func (s *Store) SetLanguage(language domain.Language) error {
	if !language.Valid() {
		return ErrUnsupportedLanguage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Language = language
	return nil
}

// SetEmergencyContact replaces the saved contact.
func (s *Store) SetEmergencyContact(contact domain.EmergencyContact) error {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Phone = strings.TrimSpace(contact.Phone)
	if contact.Name == "" {
		return ErrContactName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.EmergencyContact = &contact
	return nil
}

// Like marks an item as liked and removes it from the disliked list.
func (s *Store) Like(contentType domain.ContentType, item string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.LikedContent = addItem(s.prefs.LikedContent, contentType, item)
	s.prefs.DislikedContent = removeItem(s.prefs.DislikedContent, contentType, item)
}

// Dislike marks an item as disliked and removes it from the liked list.
func (s *Store) Dislike(contentType domain.ContentType, item string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.DislikedContent = addItem(s.prefs.DislikedContent, contentType, item)
	s.prefs.LikedContent = removeItem(s.prefs.LikedContent, contentType, item)
}

func addItem(lists map[domain.ContentType][]string, contentType domain.ContentType, item string) map[domain.ContentType][]string {
	if lists == nil {
		lists = map[domain.ContentType][]string{}
	}
	for _, existing := range lists[contentType] {
		if existing == item {
			return lists
		}
	}
	lists[contentType] = append(lists[contentType], item)
	return lists
}

func removeItem(lists map[domain.ContentType][]string, contentType domain.ContentType, item string) map[domain.ContentType][]string {
	if lists == nil {
		return nil
	}
	kept := lists[contentType][:0:0]
	for _, existing := range lists[contentType] {
		if existing != item {
			kept = append(kept, existing)
		}
	}
	lists[contentType] = kept
	return lists
}

func cloneLists(in map[domain.ContentType][]string) map[domain.ContentType][]string {
	out := make(map[domain.ContentType][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
