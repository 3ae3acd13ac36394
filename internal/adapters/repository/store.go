// Package repository holds the in-memory catalogue state: immutable
// per-generation snapshots and the generation-keyed listing cache.
package repository

import (
	"time"

	"github.com/okian/marquee/internal/domain/model"
)

// Snapshot is one generation of the catalogue. Films and companies always
// come from the same refresh. A Snapshot is never mutated after NewSnapshot
// returns, so it can be shared between goroutines without locking.
type Snapshot struct {
	generation uint64
	films      []model.Film
	companies  []model.Company
	builtAt    time.Time

	// first occurrence wins for both indexes
	filmIndex    map[string]int
	companyNames map[string]string
	duplicates   map[string]struct{}
}

// Empty returns the generation-zero snapshot used before the first refresh.
func Empty() *Snapshot {
	return NewSnapshot(0, nil, nil)
}

// NewSnapshot builds a snapshot for generation. It takes ownership of the
// slices; nil collections become empty.
func NewSnapshot(generation uint64, films []model.Film, companies []model.Company) *Snapshot {
	if films == nil {
		films = []model.Film{}
	}
	if companies == nil {
		companies = []model.Company{}
	}

	s := &Snapshot{
		generation:   generation,
		films:        films,
		companies:    companies,
		builtAt:      time.Now(),
		filmIndex:    make(map[string]int, len(films)),
		companyNames: make(map[string]string, len(companies)),
		duplicates:   make(map[string]struct{}),
	}
	for i, f := range films {
		if _, ok := s.filmIndex[f.ID]; ok {
			s.duplicates[f.ID] = struct{}{}
			continue
		}
		s.filmIndex[f.ID] = i
	}
	for _, c := range companies {
		if _, ok := s.companyNames[c.ID]; !ok {
			s.companyNames[c.ID] = c.Name
		}
	}
	return s
}

// Generation returns the refresh generation of the snapshot.
func (s *Snapshot) Generation() uint64 { return s.generation }

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// FilmCount returns the number of film records, duplicates included.
func (s *Snapshot) FilmCount() int { return len(s.films) }

// CompanyCount returns the number of company records.
func (s *Snapshot) CompanyCount() int { return len(s.companies) }

// Film returns the first film with exactly id.
func (s *Snapshot) Film(id string) (model.Film, bool) {
	i, ok := s.filmIndex[id]
	if !ok {
		return model.Film{}, false
	}
	return s.films[i], true
}

// FilmsRange returns films[start:end]. The returned slice shares memory with
// the snapshot and must not be modified.
func (s *Snapshot) FilmsRange(start, end int) []model.Film {
	return s.films[start:end]
}

// Companies returns a copy of the company collection.
func (s *Snapshot) Companies() []model.Company {
	out := make([]model.Company, len(s.companies))
	copy(out, s.companies)
	return out
}

// CompanyName resolves the first company with exactly id.
func (s *Snapshot) CompanyName(id string) (string, bool) {
	name, ok := s.companyNames[id]
	return name, ok
}

// IsDuplicate reports whether more than one film in this snapshot uses id.
func (s *Snapshot) IsDuplicate(id string) bool {
	_, ok := s.duplicates[id]
	return ok
}
