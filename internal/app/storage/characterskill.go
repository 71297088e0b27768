package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ErikKalkoken/go-set"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

type characterSkillDB struct {
	ID                 int64 `db:"id"`
	CharacterID        int64 `db:"character_id"`
	EveTypeID          int64 `db:"eve_type_id"`
	ActiveSkillLevel   int64 `db:"active_skill_level"`
	TrainedSkillLevel  int64 `db:"trained_skill_level"`
	SkillPointsInSkill int64 `db:"skill_points_in_skill"`
}

type UpdateOrCreateCharacterSkillParams struct {
	CharacterID        int32
	EveTypeID          int32
	ActiveSkillLevel   int
	TrainedSkillLevel  int
	SkillPointsInSkill int
}

func (st *Storage) UpdateOrCreateCharacterSkill(ctx context.Context, arg UpdateOrCreateCharacterSkillParams) error {
	if arg.CharacterID == 0 || arg.EveTypeID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterSkill: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_skills (character_id, eve_type_id, active_skill_level, trained_skill_level, skill_points_in_skill)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (character_id, eve_type_id) DO UPDATE SET
			active_skill_level = excluded.active_skill_level,
			trained_skill_level = excluded.trained_skill_level,
			skill_points_in_skill = excluded.skill_points_in_skill`,
		arg.CharacterID, arg.EveTypeID, arg.ActiveSkillLevel, arg.TrainedSkillLevel, arg.SkillPointsInSkill,
	)
	if err != nil {
		return fmt.Errorf("update or create skill %d for character %d: %w", arg.EveTypeID, arg.CharacterID, err)
	}
	return nil
}

// ListCharacterSkillIDs returns the type IDs of all stored skills of a character.
func (st *Storage) ListCharacterSkillIDs(ctx context.Context, characterID int32) (set.Set[int32], error) {
	var ids []int32
	err := st.db.SelectContext(
		ctx, &ids,
		"SELECT eve_type_id FROM character_skills WHERE character_id = ?",
		characterID,
	)
	if err != nil {
		return set.Set[int32]{}, fmt.Errorf("list skill ids for character %d: %w", characterID, err)
	}
	return set.Of(ids...), nil
}

// DeleteCharacterSkills removes the skills with the given type IDs.
func (st *Storage) DeleteCharacterSkills(ctx context.Context, characterID int32, eveTypeIDs []int32) error {
	if len(eveTypeIDs) == 0 {
		return nil
	}
	query, args, err := sqlxIn("DELETE FROM character_skills WHERE character_id = ? AND eve_type_id IN (?)", characterID, eveTypeIDs)
	if err != nil {
		return err
	}
	if _, err := st.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete skills for character %d: %w", characterID, err)
	}
	return nil
}

func (st *Storage) ListCharacterSkills(ctx context.Context, characterID int32) ([]*app.CharacterSkill, error) {
	var rows []characterSkillDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_skills WHERE character_id = ? ORDER BY eve_type_id",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list skills for character %d: %w", characterID, err)
	}
	r := newEntityResolver()
	for _, row := range rows {
		r.addID(row.EveTypeID)
	}
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	oo := make([]*app.CharacterSkill, len(rows))
	for i, row := range rows {
		oo[i] = &app.CharacterSkill{
			CharacterID:        int32(row.CharacterID),
			EveType:            entities[int32(row.EveTypeID)],
			ActiveSkillLevel:   int(row.ActiveSkillLevel),
			TrainedSkillLevel:  int(row.TrainedSkillLevel),
			SkillPointsInSkill: int(row.SkillPointsInSkill),
		}
	}
	return oo, nil
}

type UpdateOrCreateCharacterSkillPointsParams struct {
	CharacterID int32
	Total       int64
	Unallocated optional.Optional[int32]
}

func (st *Storage) UpdateOrCreateCharacterSkillPoints(ctx context.Context, arg UpdateOrCreateCharacterSkillPointsParams) error {
	if arg.CharacterID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterSkillPoints: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_skillpoints (character_id, total, unallocated) VALUES (?, ?, ?)
		ON CONFLICT (character_id) DO UPDATE SET
			total = excluded.total,
			unallocated = excluded.unallocated`,
		arg.CharacterID, arg.Total, optional.ToNullInt64(arg.Unallocated),
	)
	if err != nil {
		return fmt.Errorf("update or create skillpoints for character %d: %w", arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterSkillPoints(ctx context.Context, characterID int32) (*app.CharacterSkillPoints, error) {
	var row struct {
		CharacterID int64         `db:"character_id"`
		Total       int64         `db:"total"`
		Unallocated sql.NullInt64 `db:"unallocated"`
	}
	err := st.db.GetContext(ctx, &row, "SELECT * FROM character_skillpoints WHERE character_id = ?", characterID)
	if err != nil {
		return nil, fmt.Errorf("get skillpoints for character %d: %w", characterID, convertGetError(err))
	}
	return &app.CharacterSkillPoints{
		CharacterID: int32(row.CharacterID),
		Total:       row.Total,
		Unallocated: optional.FromNullInt64ToInteger[int32](row.Unallocated),
	}, nil
}
