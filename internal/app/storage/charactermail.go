package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ErikKalkoken/go-set"
	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterMailDB struct {
	ID          int64     `db:"id"`
	CharacterID int64     `db:"character_id"`
	MailID      int64     `db:"mail_id"`
	FromID      int64     `db:"from_id"`
	Subject     string    `db:"subject"`
	Timestamp   time.Time `db:"timestamp"`
	IsRead      bool      `db:"is_read"`
	Body        string    `db:"body"`
}

type UpdateOrCreateCharacterMailParams struct {
	CharacterID  int32
	MailID       int32
	FromID       int32
	Subject      string
	Timestamp    time.Time
	IsRead       bool
	RecipientIDs []int32
	LabelIDs     []int32
}

// UpdateOrCreateCharacterMail upserts a mail header and rebuilds its
// recipient and label join rows. The body is never touched here: it is
// written by the deferred body pass only. A header, its recipients and its
// labels are one atomic write.
func (st *Storage) UpdateOrCreateCharacterMail(ctx context.Context, arg UpdateOrCreateCharacterMailParams) error {
	if arg.CharacterID == 0 || arg.MailID == 0 || arg.FromID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterMail: %+v: %w", arg, app.ErrInvalid)
	}
	err := st.transaction(func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO character_mails (character_id, mail_id, from_id, subject, timestamp, is_read, body)
			VALUES (?, ?, ?, ?, ?, ?, "")
			ON CONFLICT (character_id, mail_id) DO UPDATE SET
				from_id = excluded.from_id,
				subject = excluded.subject,
				timestamp = excluded.timestamp,
				is_read = excluded.is_read`,
			arg.CharacterID, arg.MailID, arg.FromID, arg.Subject, arg.Timestamp, arg.IsRead,
		)
		if err != nil {
			return err
		}
		var mailPK int64
		err = tx.GetContext(
			ctx, &mailPK,
			"SELECT id FROM character_mails WHERE character_id = ? AND mail_id = ?",
			arg.CharacterID, arg.MailID,
		)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM character_mail_recipients WHERE mail_id = ?", mailPK); err != nil {
			return err
		}
		for _, id := range arg.RecipientIDs {
			_, err := tx.ExecContext(
				ctx,
				"INSERT INTO character_mail_recipients (mail_id, eve_entity_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				mailPK, id,
			)
			if err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM character_mail_mail_labels WHERE mail_id = ?", mailPK); err != nil {
			return err
		}
		for _, labelID := range arg.LabelIDs {
			// unknown label IDs are skipped, the caller has already warned
			var labelPK int64
			err := tx.GetContext(
				ctx, &labelPK,
				"SELECT id FROM character_mail_labels WHERE character_id = ? AND label_id = ?",
				arg.CharacterID, labelID,
			)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(
				ctx,
				"INSERT INTO character_mail_mail_labels (mail_id, label_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				mailPK, labelPK,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update or create mail %d for character %d: %w", arg.MailID, arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterMail(ctx context.Context, characterID, mailID int32) (*app.CharacterMail, error) {
	var row characterMailDB
	err := st.db.GetContext(
		ctx, &row,
		"SELECT * FROM character_mails WHERE character_id = ? AND mail_id = ?",
		characterID, mailID,
	)
	if err != nil {
		return nil, fmt.Errorf("get mail %d for character %d: %w", mailID, characterID, convertGetError(err))
	}
	var recipientIDs []int64
	err = st.db.SelectContext(
		ctx, &recipientIDs,
		"SELECT eve_entity_id FROM character_mail_recipients WHERE mail_id = ? ORDER BY eve_entity_id",
		row.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get recipients for mail %d: %w", row.ID, err)
	}
	var labelIDs []int32
	err = st.db.SelectContext(
		ctx, &labelIDs,
		`SELECT l.label_id FROM character_mail_mail_labels j
		JOIN character_mail_labels l ON l.id = j.label_id
		WHERE j.mail_id = ? ORDER BY l.label_id`,
		row.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get labels for mail %d: %w", row.ID, err)
	}
	r := newEntityResolver()
	r.addID(row.FromID)
	r.addID(recipientIDs...)
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	recipients := make([]*app.EveEntity, len(recipientIDs))
	for i, id := range recipientIDs {
		recipients[i] = entities[int32(id)]
	}
	return &app.CharacterMail{
		ID:          row.ID,
		CharacterID: int32(row.CharacterID),
		MailID:      int32(row.MailID),
		From:        entities[int32(row.FromID)],
		Subject:     row.Subject,
		Timestamp:   row.Timestamp,
		IsRead:      row.IsRead,
		Body:        row.Body,
		Labels:      labelIDs,
		Recipients:  recipients,
	}, nil
}

// ListCharacterMailIDs returns the native IDs of all stored mails of a character.
func (st *Storage) ListCharacterMailIDs(ctx context.Context, characterID int32) (set.Set[int32], error) {
	var ids []int32
	err := st.db.SelectContext(
		ctx, &ids,
		"SELECT mail_id FROM character_mails WHERE character_id = ?",
		characterID,
	)
	if err != nil {
		return set.Set[int32]{}, fmt.Errorf("list mail ids for character %d: %w", characterID, err)
	}
	return set.Of(ids...), nil
}

// ListCharacterMailIDsNoBody returns the native IDs of mails whose body has
// not been fetched yet.
func (st *Storage) ListCharacterMailIDsNoBody(ctx context.Context, characterID int32) ([]int32, error) {
	var ids []int32
	err := st.db.SelectContext(
		ctx, &ids,
		`SELECT mail_id FROM character_mails WHERE character_id = ? AND body = "" ORDER BY mail_id`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list mail ids without body for character %d: %w", characterID, err)
	}
	return ids, nil
}

func (st *Storage) UpdateCharacterMailBody(ctx context.Context, characterID, mailID int32, body string) error {
	_, err := st.db.ExecContext(
		ctx,
		"UPDATE character_mails SET body = ? WHERE character_id = ? AND mail_id = ?",
		body, characterID, mailID,
	)
	if err != nil {
		return fmt.Errorf("update body of mail %d for character %d: %w", mailID, characterID, err)
	}
	return nil
}

// CountCharacterMails returns the number of stored mails of a character.
func (st *Storage) CountCharacterMails(ctx context.Context, characterID int32) (int, error) {
	var n int
	err := st.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM character_mails WHERE character_id = ?", characterID)
	if err != nil {
		return 0, fmt.Errorf("count mails for character %d: %w", characterID, err)
	}
	return n, nil
}
