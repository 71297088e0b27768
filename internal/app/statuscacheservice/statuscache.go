// Package statuscacheservice provides cached access to the current update
// status of all character sections.
package statuscacheservice

import (
	"context"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/memcache"
)

const keyCharacters = "characterUpdateStatusCache-characters"

// StatusCacheService provides cached access to the current update status of
// all characters without hitting the database on every read.
type StatusCacheService struct {
	cache *memcache.Cache
	st    *storage.Storage
}

// New creates and returns a new instance of a status cache service.
func New(cache *memcache.Cache, st *storage.Storage) *StatusCacheService {
	if cache == nil {
		cache = memcache.New()
	}
	sc := &StatusCacheService{cache: cache, st: st}
	return sc
}

// InitCache initializes the internal state from local storage.
// It should be called once for a new instance to ensure the cache is current.
func (sc *StatusCacheService) InitCache(ctx context.Context) error {
	cc, err := sc.updateCharacters(ctx)
	if err != nil {
		return err
	}
	for _, c := range cc {
		oo, err := sc.st.ListCharacterSectionStatus(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, o := range oo {
			sc.SetCharacterSection(o)
		}
	}
	return nil
}

type cacheKey struct {
	id      int32
	section string
}

func (ck cacheKey) String() string {
	return fmt.Sprintf("%d-%s", ck.id, ck.section)
}

type cacheValue struct {
	ContentHash  string
	ErrorMessage string
	IsSuccess    bool
	UpdatedAt    time.Time
}

// CharacterSectionGet returns the cached status of one section.
func (sc *StatusCacheService) CharacterSectionGet(characterID int32, section app.CharacterSection) (*app.CharacterSectionStatus, bool) {
	k := cacheKey{id: characterID, section: string(section)}
	x, ok := sc.cache.Get(k.String())
	if !ok {
		return nil, false
	}
	v := x.(cacheValue)
	o := &app.CharacterSectionStatus{
		CharacterID:  characterID,
		Section:      section,
		ContentHash:  v.ContentHash,
		ErrorMessage: v.ErrorMessage,
		IsSuccess:    v.IsSuccess,
		UpdatedAt:    v.UpdatedAt,
	}
	return o, true
}

// CharacterSectionList returns the cached statuses of one character.
// Sections without a status row yet are omitted.
func (sc *StatusCacheService) CharacterSectionList(characterID int32) []*app.CharacterSectionStatus {
	list := make([]*app.CharacterSectionStatus, 0)
	for _, section := range app.CharacterSections {
		v, ok := sc.CharacterSectionGet(characterID, section)
		if !ok {
			continue
		}
		list = append(list, v)
	}
	return list
}

// SetCharacterSection stores the status of one section in the cache.
func (sc *StatusCacheService) SetCharacterSection(o *app.CharacterSectionStatus) {
	if o == nil {
		return
	}
	k := cacheKey{id: o.CharacterID, section: string(o.Section)}
	v := cacheValue{
		ContentHash:  o.ContentHash,
		ErrorMessage: o.ErrorMessage,
		IsSuccess:    o.IsSuccess,
		UpdatedAt:    o.UpdatedAt,
	}
	sc.cache.Set(k.String(), v, 0)
}

// ClearCharacterSections removes all cached section statuses of one
// character, so its summary reads as incomplete until fresh statuses arrive.
func (sc *StatusCacheService) ClearCharacterSections(characterID int32) {
	for _, section := range app.CharacterSections {
		k := cacheKey{id: characterID, section: string(section)}
		sc.cache.Delete(k.String())
	}
}

// CharacterSummary returns the aggregate health of one character.
func (sc *StatusCacheService) CharacterSummary(characterID int32) app.Status {
	return app.AggregateStatus(sc.CharacterSectionList(characterID))
}

// UpdateCharacters refreshes the cached character list from storage.
func (sc *StatusCacheService) UpdateCharacters(ctx context.Context) error {
	_, err := sc.updateCharacters(ctx)
	return err
}

func (sc *StatusCacheService) updateCharacters(ctx context.Context) ([]*app.Character, error) {
	cc, err := sc.st.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	sc.cache.Set(keyCharacters, cc, 0)
	return cc, nil
}

// ListCharacters returns the cached list of tracked characters.
func (sc *StatusCacheService) ListCharacters() []*app.Character {
	x, ok := sc.cache.Get(keyCharacters)
	if !ok {
		return nil
	}
	return x.([]*app.Character)
}

// Statistics is a point in time summary over all characters and sections.
type Statistics struct {
	Characters      int             `json:"characters"`
	SectionsOK      int             `json:"sections_ok"`
	SectionsFailed  int             `json:"sections_failed"`
	SectionsMissing int             `json:"sections_missing"`
	FailedSections  []FailedSection `json:"failed_sections,omitempty"`
	OldestUpdate    *time.Time      `json:"oldest_update,omitempty"`
	NewestUpdate    *time.Time      `json:"newest_update,omitempty"`
}

// FailedSection identifies one failed section with its error message.
type FailedSection struct {
	CharacterID  int32  `json:"character_id"`
	Section      string `json:"section"`
	ErrorMessage string `json:"error_message"`
}

// CalculateStatistics computes summary statistics from local storage.
func (sc *StatusCacheService) CalculateStatistics(ctx context.Context) (*Statistics, error) {
	cc, err := sc.st.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	oo, err := sc.st.ListAllCharacterSectionStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{Characters: len(cc)}
	for _, o := range oo {
		if o.IsSuccess {
			stats.SectionsOK++
		} else {
			stats.SectionsFailed++
			stats.FailedSections = append(stats.FailedSections, FailedSection{
				CharacterID:  o.CharacterID,
				Section:      string(o.Section),
				ErrorMessage: o.ErrorMessage,
			})
		}
		if stats.OldestUpdate == nil || o.UpdatedAt.Before(*stats.OldestUpdate) {
			t := o.UpdatedAt
			stats.OldestUpdate = &t
		}
		if stats.NewestUpdate == nil || o.UpdatedAt.After(*stats.NewestUpdate) {
			t := o.UpdatedAt
			stats.NewestUpdate = &t
		}
	}
	stats.SectionsMissing = len(cc)*len(app.CharacterSections) - len(oo)
	return stats, nil
}
