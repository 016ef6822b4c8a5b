package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// GameStateSchemaVersion is bumped whenever the stored game state document changes shape.
const GameStateSchemaVersion = 1

type GameEntry struct {
	Name     string `json:"name"`
	Genre    string `json:"genre,omitempty"`
	Platform string `json:"platform,omitempty"`
	AddedBy  string `json:"addedBy,omitempty"`
}

// SpinRecord describes one in-flight spin. Times are unix milliseconds so that
// browsers can interpolate without parsing.
type SpinRecord struct {
	SpinID        string    `json:"spinId"`
	StartTime     int64     `json:"startTime"`
	Duration      int64     `json:"duration"`
	FinalRotation float64   `json:"finalRotation"`
	BaseRotation  float64   `json:"baseRotation"`
	Winner        GameEntry `json:"winner"`
}

func (r SpinRecord) StartedAt() time.Time {
	return time.UnixMilli(r.StartTime)
}

func (r SpinRecord) Length() time.Duration {
	return time.Duration(r.Duration) * time.Millisecond
}

func (r SpinRecord) EndsAt() time.Time {
	return r.StartedAt().Add(r.Length())
}

// GameState is the authoritative per-session document. Whether a spin is in
// progress is derived from SpinData, so the two can never disagree.
type GameState struct {
	SchemaVersion  int
	Revision       int64
	SelectedGames  []GameEntry
	Winner         *GameEntry
	SpinData       *SpinRecord
	GameLimit      *int
	UserGameCounts map[string]int
}

type gameStateJSON struct {
	SchemaVersion  int            `json:"schemaVersion"`
	Revision       int64          `json:"revision"`
	SelectedGames  []GameEntry    `json:"selectedGames"`
	IsSpinning     bool           `json:"isSpinning"`
	Winner         *GameEntry     `json:"winner"`
	SpinData       *SpinRecord    `json:"spinData"`
	GameLimit      *int           `json:"gameLimit"`
	UserGameCounts map[string]int `json:"userGameCounts"`
}

func NewGameState() GameState {
	return GameState{
		SchemaVersion:  GameStateSchemaVersion,
		SelectedGames:  []GameEntry{},
		UserGameCounts: map[string]int{},
	}
}

func (s GameState) MarshalJSON() ([]byte, error) {
	games := s.SelectedGames
	if games == nil {
		games = []GameEntry{}
	}
	counts := s.UserGameCounts
	if counts == nil {
		counts = map[string]int{}
	}

	return json.Marshal(gameStateJSON{
		SchemaVersion:  s.SchemaVersion,
		Revision:       s.Revision,
		SelectedGames:  games,
		IsSpinning:     s.SpinData != nil,
		Winner:         s.Winner,
		SpinData:       s.SpinData,
		GameLimit:      s.GameLimit,
		UserGameCounts: counts,
	})
}

// UnmarshalJSON ignores the stored isSpinning flag; SpinData is the source of truth.
func (s *GameState) UnmarshalJSON(data []byte) error {
	var raw gameStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = GameState{
		SchemaVersion:  raw.SchemaVersion,
		Revision:       raw.Revision,
		SelectedGames:  raw.SelectedGames,
		Winner:         raw.Winner,
		SpinData:       raw.SpinData,
		GameLimit:      raw.GameLimit,
		UserGameCounts: raw.UserGameCounts,
	}

	if s.SchemaVersion == 0 {
		s.SchemaVersion = GameStateSchemaVersion
	}
	if s.SelectedGames == nil {
		s.SelectedGames = []GameEntry{}
	}
	if s.UserGameCounts == nil {
		s.UserGameCounts = map[string]int{}
	}
	if s.SpinData != nil {
		s.Winner = nil
	}

	return nil
}

func (s GameState) Spinning() bool {
	return s.SpinData != nil
}

// SpinOverdue reports whether a recorded spin should already have finished.
func (s GameState) SpinOverdue(now time.Time) bool {
	return s.SpinData != nil && !now.Before(s.SpinData.EndsAt())
}

func (s GameState) Clone() GameState {
	out := GameState{
		SchemaVersion:  s.SchemaVersion,
		Revision:       s.Revision,
		SelectedGames:  make([]GameEntry, len(s.SelectedGames)),
		UserGameCounts: make(map[string]int, len(s.UserGameCounts)),
	}
	copy(out.SelectedGames, s.SelectedGames)
	for k, v := range s.UserGameCounts {
		out.UserGameCounts[k] = v
	}
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	if s.SpinData != nil {
		d := *s.SpinData
		out.SpinData = &d
	}
	if s.GameLimit != nil {
		l := *s.GameLimit
		out.GameLimit = &l
	}
	return out
}

func (s GameState) HasGame(name string) bool {
	for _, g := range s.SelectedGames {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (s GameState) CountFor(memberID string) int {
	return s.UserGameCounts[memberID]
}

// SortedGames returns the selection in wheel order: by name, ascending.
func (s GameState) SortedGames() []GameEntry {
	games := make([]GameEntry, len(s.SelectedGames))
	copy(games, s.SelectedGames)
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Name < games[j].Name
	})
	return games
}

func (s *GameState) AddGame(entry GameEntry, memberID string) error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return ErrInvalidGame
	}
	if s.Spinning() {
		return ErrAlreadySpinning
	}
	if s.HasGame(entry.Name) {
		return ErrDuplicateName
	}
	if s.GameLimit != nil && s.CountFor(memberID) >= *s.GameLimit {
		return fmt.Errorf("%w: %d per member", ErrLimitExceeded, *s.GameLimit)
	}

	entry.AddedBy = memberID
	s.SelectedGames = append(s.SelectedGames, entry)
	if memberID != "" {
		if s.UserGameCounts == nil {
			s.UserGameCounts = map[string]int{}
		}
		s.UserGameCounts[memberID]++
	}
	return nil
}

func (s *GameState) RemoveGame(name string) error {
	if s.Spinning() {
		return ErrAlreadySpinning
	}

	for i, g := range s.SelectedGames {
		if g.Name != name {
			continue
		}

		s.SelectedGames = append(s.SelectedGames[:i], s.SelectedGames[i+1:]...)
		if g.AddedBy != "" {
			if n := s.UserGameCounts[g.AddedBy] - 1; n > 0 {
				s.UserGameCounts[g.AddedBy] = n
			} else {
				delete(s.UserGameCounts, g.AddedBy)
			}
		}
		return nil
	}

	return ErrGameNotFound
}

// ClearAll resets the selection unconditionally, including any spin in progress.
func (s *GameState) ClearAll() {
	s.SelectedGames = []GameEntry{}
	s.UserGameCounts = map[string]int{}
	s.Winner = nil
	s.SpinData = nil
}

// SetLimit sets the per-member game limit; nil removes it.
func (s *GameState) SetLimit(limit *int) error {
	if limit == nil {
		s.GameLimit = nil
		return nil
	}
	if *limit <= 0 {
		return ErrInvalidLimit
	}
	for _, n := range s.UserGameCounts {
		if n > *limit {
			return fmt.Errorf("%w: a member already added %d", ErrLimitBelowUsage, n)
		}
	}

	l := *limit
	s.GameLimit = &l
	return nil
}

func (s *GameState) BeginSpin(record SpinRecord) error {
	if s.Spinning() {
		return ErrAlreadySpinning
	}
	if len(s.SelectedGames) == 0 {
		return ErrEmptySelection
	}

	s.SpinData = &record
	s.Winner = nil
	return nil
}

// CompleteSpin finalizes the spin identified by spinID. Any other id is stale.
func (s *GameState) CompleteSpin(spinID string) error {
	if s.SpinData == nil || s.SpinData.SpinID != spinID {
		return ErrStaleSpin
	}

	winner := s.SpinData.Winner
	s.Winner = &winner
	s.SpinData = nil
	return nil
}

// Validate checks the structural invariants of the document.
func (s GameState) Validate() error {
	seen := make(map[string]struct{}, len(s.SelectedGames))
	counted := make(map[string]int)
	for _, g := range s.SelectedGames {
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("duplicate game %q", g.Name)
		}
		seen[g.Name] = struct{}{}
		if g.AddedBy != "" {
			counted[g.AddedBy]++
		}
	}

	total := 0
	for member, n := range s.UserGameCounts {
		if n < 0 {
			return fmt.Errorf("negative count for %s", member)
		}
		if s.GameLimit != nil && n > *s.GameLimit {
			return fmt.Errorf("member %s has %d games over limit %d", member, n, *s.GameLimit)
		}
		total += n
	}

	entries := 0
	for _, n := range counted {
		entries += n
	}
	if total != entries {
		return fmt.Errorf("counts sum to %d but %d entries have an owner", total, entries)
	}

	if s.SpinData != nil && s.Winner != nil {
		return fmt.Errorf("winner set while spinning")
	}

	return nil
}
