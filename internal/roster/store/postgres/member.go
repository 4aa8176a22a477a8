package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/tx"
)

// MemberStore resolves the engine's member views. Families and tents read
// participant registrations; service spaces read service registrations.
// The registration module owns both tables, this store only reads them.
type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) GetMapByIDs(ctx context.Context, kind models.Kind, ids []id.MemberID) (map[id.MemberID]models.Member, error) {
	if len(ids) == 0 {
		return map[id.MemberID]models.Member{}, nil
	}

	query := `
		SELECT id, retreat_id, name, surname, gender, city, status, enabled
		FROM registrations
		WHERE id = ANY($1)
	`
	if kind == models.KindService {
		query = `
			SELECT id, retreat_id, name, surname, gender, city, status, enabled
			FROM service_registrations
			WHERE id = ANY($1)
		`
	}

	raw := make([]string, len(ids))
	for i, memberID := range ids {
		raw[i] = memberID.String()
	}
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	defer rows.Close()

	out := make(map[id.MemberID]models.Member, len(ids))
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("get members: %w", err)
		}
		out[member.ID] = member
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	return out, nil
}

func scanMember(rows *sql.Rows) (models.Member, error) {
	var member models.Member
	var rawID, rawRetreat, rawGender string
	if err := rows.Scan(&rawID, &rawRetreat, &member.Name, &member.Surname,
		&rawGender, &member.City, &member.Status, &member.Enabled); err != nil {
		return models.Member{}, err
	}
	memberID, err := id.ParseMemberID(rawID)
	if err != nil {
		return models.Member{}, err
	}
	retreatID, err := id.ParseRetreatID(rawRetreat)
	if err != nil {
		return models.Member{}, err
	}
	member.ID = memberID
	member.RetreatID = retreatID
	member.Gender = models.Gender(rawGender)
	return member, nil
}

// parseUUIDField parses ids that have no dedicated parser in pkg/domain.
func parseUUIDField(raw, what string) (uuid.UUID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", what, raw, err)
	}
	return u, nil
}
