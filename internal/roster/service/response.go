package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
)

// render re-reads the persisted board and builds the unit views. It covers
// every unit of the retreat, not just the touched ones: after a save the
// client repaints the whole board.
func (e *Engine) render(ctx context.Context, kind models.Kind, retreatID id.RetreatID) ([]models.UnitView, error) {
	units, err := e.stores.Units.ListByRetreat(ctx, kind, retreatID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, nil
	}

	unitIDs := make([]id.UnitID, 0, len(units))
	for _, u := range units {
		unitIDs = append(unitIDs, u.ID)
	}
	links, err := e.stores.Links.ListByUnitIDs(ctx, kind, unitIDs)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]id.MemberID, 0, len(links))
	seen := make(map[id.MemberID]struct{}, len(links))
	for _, link := range links {
		if _, dup := seen[link.MemberID]; !dup {
			seen[link.MemberID] = struct{}{}
			memberIDs = append(memberIDs, link.MemberID)
		}
	}
	members := map[id.MemberID]models.Member{}
	if len(memberIDs) > 0 {
		members, err = e.stores.Members.GetMapByIDs(ctx, kind, memberIDs)
		if err != nil {
			return nil, err
		}
	}

	linksByUnit := make(map[id.UnitID][]models.Link, len(units))
	for _, link := range links {
		linksByUnit[link.UnitID] = append(linksByUnit[link.UnitID], link)
	}

	sort.Slice(units, func(i, j int) bool {
		if units[i].Position != units[j].Position {
			return units[i].Position < units[j].Position
		}
		return units[i].Name < units[j].Name
	})

	views := make([]models.UnitView, 0, len(units))
	for _, u := range units {
		unitLinks := linksByUnit[u.ID]
		sort.Slice(unitLinks, func(i, j int) bool { return unitLinks[i].Position < unitLinks[j].Position })

		memberViews := make([]models.MemberView, 0, len(unitLinks))
		for _, link := range unitLinks {
			m := members[link.MemberID]
			memberViews = append(memberViews, models.MemberView{
				ID:       link.MemberID,
				Name:     m.Name,
				Surname:  m.Surname,
				Gender:   m.Gender,
				City:     m.City,
				Position: link.Position,
				Role:     link.Role,
			})
		}
		views = append(views, models.UnitView{
			ID:        u.ID,
			Name:      u.Name,
			Category:  u.Category,
			MinPeople: u.MinPeople,
			MaxPeople: u.MaxPeople,
			Locked:    u.Locked,
			Occupancy: len(unitLinks),
			Members:   memberViews,
		})
	}
	return views, nil
}

// Board serves the read-only roster view. Rendered boards are cached keyed by
// version: a reconciliation bumps the version, so stale entries are simply
// never asked for again and age out by TTL.
func (e *Engine) Board(ctx context.Context, kind models.Kind, retreatID id.RetreatID) (*models.Board, error) {
	if _, err := e.policies.For(kind); err != nil {
		return nil, err
	}
	state, err := e.stores.State.Get(ctx, kind, retreatID)
	if err != nil {
		return nil, translateStoreErr(err, "roster state")
	}

	cacheKey := boardCacheKey(kind, retreatID, state.Version)
	if e.cache != nil {
		raw, hit, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			e.logger.WarnContext(ctx, "board cache read failed", "error", err, "key", cacheKey)
		} else if hit {
			var board models.Board
			if err := json.Unmarshal(raw, &board); err == nil {
				return &board, nil
			}
		}
	}

	units, err := e.render(ctx, kind, retreatID)
	if err != nil {
		return nil, translateStoreErr(err, "roster")
	}
	board := &models.Board{
		RetreatID: retreatID,
		Kind:      kind,
		Version:   state.Version,
		Locked:    state.Locked,
		Units:     units,
	}

	if e.cache != nil {
		if raw, err := json.Marshal(board); err == nil {
			if err := e.cache.Set(ctx, cacheKey, raw, e.cacheTTL); err != nil {
				e.logger.WarnContext(ctx, "board cache write failed", "error", err, "key", cacheKey)
			}
		}
	}
	return board, nil
}

func boardCacheKey(kind models.Kind, retreatID id.RetreatID, version int64) string {
	return fmt.Sprintf("roster:%s:%s:v%d", kind, retreatID, version)
}
