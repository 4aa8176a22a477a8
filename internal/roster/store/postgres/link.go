package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/tx"
)

// LinkStore persists unit-member links. The roster_links table carries a
// unique index on (kind, retreat_id, member_id): the database, not the
// engine, is the final arbiter of the one-link-per-member invariant under
// concurrent writers.
type LinkStore struct {
	db *sql.DB
}

func NewLinkStore(db *sql.DB) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) ListByUnitIDs(ctx context.Context, kind models.Kind, unitIDs []id.UnitID) ([]models.Link, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, retreat_id, unit_id, kind, member_id, position, role
		FROM roster_links
		WHERE kind = $1 AND unit_id = ANY($2)
		ORDER BY unit_id, position
	`
	raw := make([]string, len(unitIDs))
	for i, uid := range unitIDs {
		raw[i] = uid.String()
	}
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, string(kind), pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("list links: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *LinkStore) ListByMemberIDs(ctx context.Context, kind models.Kind, retreatID id.RetreatID, memberIDs []id.MemberID) ([]models.Link, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, retreat_id, unit_id, kind, member_id, position, role
		FROM roster_links
		WHERE kind = $1 AND retreat_id = $2 AND member_id = ANY($3)
	`
	raw := make([]string, len(memberIDs))
	for i, mid := range memberIDs {
		raw[i] = mid.String()
	}
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, string(kind), retreatID.String(), pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list links by member: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("list links by member: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list links by member: %w", err)
	}
	return links, nil
}

func (s *LinkStore) RemoveRange(ctx context.Context, links []models.Link) error {
	if len(links) == 0 {
		return nil
	}
	const query = `DELETE FROM roster_links WHERE id = ANY($1)`
	ids := make([]string, len(links))
	for i, link := range links {
		ids[i] = link.ID.String()
	}
	if _, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("remove links: %w", err)
	}
	return nil
}

func (s *LinkStore) AddRange(ctx context.Context, links []models.Link) error {
	if len(links) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO roster_links (id, retreat_id, unit_id, kind, member_id, position, role) VALUES `)
	args := make([]any, 0, len(links)*7)
	for i, link := range links {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			link.ID.String(), link.RetreatID.String(), link.UnitID.String(),
			string(link.Kind), link.MemberID.String(), link.Position, string(link.Role),
		)
	}
	if _, err := tx.Resolve(ctx, s.db).ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("add links: %w", err)
	}
	return nil
}

func scanLink(rows *sql.Rows) (models.Link, error) {
	var link models.Link
	var rawID, rawRetreat, rawUnit, rawKind, rawMember, rawRole string
	if err := rows.Scan(&rawID, &rawRetreat, &rawUnit, &rawKind, &rawMember, &link.Position, &rawRole); err != nil {
		return models.Link{}, err
	}
	linkUUID, err := parseUUIDField(rawID, "link")
	if err != nil {
		return models.Link{}, err
	}
	retreatID, err := id.ParseRetreatID(rawRetreat)
	if err != nil {
		return models.Link{}, err
	}
	unitID, err := id.ParseUnitID(rawUnit)
	if err != nil {
		return models.Link{}, err
	}
	memberID, err := id.ParseMemberID(rawMember)
	if err != nil {
		return models.Link{}, err
	}
	link.ID = id.LinkID(linkUUID)
	link.RetreatID = retreatID
	link.UnitID = unitID
	link.Kind = models.Kind(rawKind)
	link.MemberID = memberID
	link.Role = models.Role(rawRole)
	return link, nil
}
