// Package memory provides mutex-guarded in-memory twins of the roster
// stores. Unit tests drive the engine against them; the postgres package
// carries the real implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
)

// StateStore keeps per-kind roster state in a map.
type StateStore struct {
	mu     sync.Mutex
	states map[stateKey]models.State
}

type stateKey struct {
	kind      models.Kind
	retreatID id.RetreatID
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[stateKey]models.State)}
}

// Seed installs a roster state, typically version 0 and unlocked.
func (s *StateStore) Seed(state models.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey{state.Kind, state.RetreatID}] = state
}

// SeedAll installs fresh states for every board of a retreat. Existing
// states are kept, mirroring the postgres ON CONFLICT DO NOTHING.
func (s *StateStore) SeedAll(_ context.Context, retreatID id.RetreatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []models.Kind{models.KindFamily, models.KindTent, models.KindService} {
		key := stateKey{kind, retreatID}
		if _, exists := s.states[key]; exists {
			continue
		}
		s.states[key] = models.State{RetreatID: retreatID, Kind: kind}
	}
	return nil
}

func (s *StateStore) Get(_ context.Context, kind models.Kind, retreatID id.RetreatID) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[stateKey{kind, retreatID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &state, nil
}

func (s *StateStore) BumpVersion(_ context.Context, kind models.Kind, retreatID id.RetreatID, from int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{kind, retreatID}
	state, ok := s.states[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if state.Version != from {
		return sentinel.ErrConflict
	}
	state.Version++
	s.states[key] = state
	return nil
}

func (s *StateStore) SetLocked(_ context.Context, kind models.Kind, retreatID id.RetreatID, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{kind, retreatID}
	state, ok := s.states[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	state.Locked = locked
	s.states[key] = state
	return nil
}

// UnitStore keeps units in a map.
type UnitStore struct {
	mu    sync.Mutex
	units map[id.UnitID]models.Unit
}

func NewUnitStore() *UnitStore {
	return &UnitStore{units: make(map[id.UnitID]models.Unit)}
}

func (s *UnitStore) Create(_ context.Context, unit *models.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.units[unit.ID]; exists {
		return sentinel.ErrConflict
	}
	s.units[unit.ID] = *unit
	return nil
}

func (s *UnitStore) ListByRetreat(_ context.Context, kind models.Kind, retreatID id.RetreatID) ([]models.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Unit
	for _, u := range s.units {
		if u.Kind == kind && u.RetreatID == retreatID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *UnitStore) SetLocked(_ context.Context, kind models.Kind, retreatID id.RetreatID, unitID id.UnitID, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit, ok := s.units[unitID]
	if !ok || unit.Kind != kind || unit.RetreatID != retreatID {
		return sentinel.ErrNotFound
	}
	unit.Locked = locked
	s.units[unitID] = unit
	return nil
}

// LinkStore keeps links in a map keyed by link id.
type LinkStore struct {
	mu    sync.Mutex
	links map[id.LinkID]models.Link
}

func NewLinkStore() *LinkStore {
	return &LinkStore{links: make(map[id.LinkID]models.Link)}
}

func (s *LinkStore) ListByUnitIDs(_ context.Context, kind models.Kind, unitIDs []id.UnitID) ([]models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[id.UnitID]struct{}, len(unitIDs))
	for _, uid := range unitIDs {
		wanted[uid] = struct{}{}
	}
	var out []models.Link
	for _, link := range s.links {
		if link.Kind != kind {
			continue
		}
		if _, ok := wanted[link.UnitID]; ok {
			out = append(out, link)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID.String() < out[j].UnitID.String()
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (s *LinkStore) ListByMemberIDs(_ context.Context, kind models.Kind, retreatID id.RetreatID, memberIDs []id.MemberID) ([]models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[id.MemberID]struct{}, len(memberIDs))
	for _, mid := range memberIDs {
		wanted[mid] = struct{}{}
	}
	var out []models.Link
	for _, link := range s.links {
		if link.Kind != kind || link.RetreatID != retreatID {
			continue
		}
		if _, ok := wanted[link.MemberID]; ok {
			out = append(out, link)
		}
	}
	return out, nil
}

func (s *LinkStore) RemoveRange(_ context.Context, links []models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range links {
		delete(s.links, link.ID)
	}
	return nil
}

func (s *LinkStore) AddRange(_ context.Context, links []models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Mirror the unique index: one link per member per kind per retreat.
	existing := make(map[string]struct{}, len(s.links))
	for _, link := range s.links {
		existing[memberKey(link)] = struct{}{}
	}
	for _, link := range links {
		if _, dup := existing[memberKey(link)]; dup {
			return sentinel.ErrConflict
		}
		existing[memberKey(link)] = struct{}{}
	}
	for _, link := range links {
		s.links[link.ID] = link
	}
	return nil
}

func memberKey(link models.Link) string {
	return string(link.Kind) + "/" + link.RetreatID.String() + "/" + link.MemberID.String()
}

// MemberStore keeps members in a map, segmented the way the postgres store
// segments its sources: one population for participant registrations
// (families, tents) and one for service registrations.
type MemberStore struct {
	mu           sync.Mutex
	participants map[id.MemberID]models.Member
	service      map[id.MemberID]models.Member
}

func NewMemberStore() *MemberStore {
	return &MemberStore{
		participants: make(map[id.MemberID]models.Member),
		service:      make(map[id.MemberID]models.Member),
	}
}

// PutParticipant seeds a participant registration.
func (s *MemberStore) PutParticipant(m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[m.ID] = m
}

// PutService seeds a service registration.
func (s *MemberStore) PutService(m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.service[m.ID] = m
}

func (s *MemberStore) GetMapByIDs(_ context.Context, kind models.Kind, ids []id.MemberID) (map[id.MemberID]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	source := s.participants
	if kind == models.KindService {
		source = s.service
	}
	out := make(map[id.MemberID]models.Member, len(ids))
	for _, memberID := range ids {
		if m, ok := source[memberID]; ok {
			out[memberID] = m
		}
	}
	return out, nil
}

// TxRunner serializes in-memory "transactions" behind a coarse lock. There is
// no rollback; tests that need failure atomicity assert through the engine's
// short-circuit behavior instead.
type TxRunner struct {
	mu sync.Mutex
}

func NewTxRunner() *TxRunner { return &TxRunner{} }

func (r *TxRunner) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
