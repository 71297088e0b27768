package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErikKalkoken/go-set"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

type characterContractDB struct {
	ID                  int64         `db:"id"`
	CharacterID         int64         `db:"character_id"`
	ContractID          int64         `db:"contract_id"`
	AcceptorID          sql.NullInt64 `db:"acceptor_id"`
	AssigneeID          sql.NullInt64 `db:"assignee_id"`
	Availability        string        `db:"availability"`
	Buyout              float64       `db:"buyout"`
	Collateral          float64       `db:"collateral"`
	DateAccepted        sql.NullTime  `db:"date_accepted"`
	DateCompleted       sql.NullTime  `db:"date_completed"`
	DateExpired         time.Time     `db:"date_expired"`
	DateIssued          time.Time     `db:"date_issued"`
	DaysToComplete      int64         `db:"days_to_complete"`
	EndLocationID       sql.NullInt64 `db:"end_location_id"`
	ForCorporation      bool          `db:"for_corporation"`
	IssuerID            int64         `db:"issuer_id"`
	IssuerCorporationID int64         `db:"issuer_corporation_id"`
	Price               float64       `db:"price"`
	Reward              float64       `db:"reward"`
	StartLocationID     sql.NullInt64 `db:"start_location_id"`
	Status              string        `db:"status"`
	Title               string        `db:"title"`
	Type                string        `db:"type"`
	Volume              float64       `db:"volume"`
}

type UpdateOrCreateCharacterContractParams struct {
	CharacterID         int32
	ContractID          int32
	AcceptorID          optional.Optional[int32]
	AssigneeID          optional.Optional[int32]
	Availability        app.ContractAvailability
	Buyout              float64
	Collateral          float64
	DateAccepted        optional.Optional[time.Time]
	DateCompleted       optional.Optional[time.Time]
	DateExpired         time.Time
	DateIssued          time.Time
	DaysToComplete      int32
	EndLocationID       optional.Optional[int64]
	ForCorporation      bool
	IssuerID            int32
	IssuerCorporationID int32
	Price               float64
	Reward              float64
	StartLocationID     optional.Optional[int64]
	Status              app.ContractStatus
	Title               string
	Type                app.ContractType
	Volume              float64
}

// UpdateOrCreateCharacterContract upserts a contract keyed by contract ID.
func (st *Storage) UpdateOrCreateCharacterContract(ctx context.Context, arg UpdateOrCreateCharacterContractParams) error {
	if arg.CharacterID == 0 || arg.ContractID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterContract: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_contracts (
			character_id, contract_id, acceptor_id, assignee_id, availability,
			buyout, collateral, date_accepted, date_completed, date_expired,
			date_issued, days_to_complete, end_location_id, for_corporation,
			issuer_id, issuer_corporation_id, price, reward, start_location_id,
			status, title, type, volume
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id, contract_id) DO UPDATE SET
			acceptor_id = excluded.acceptor_id,
			date_accepted = excluded.date_accepted,
			date_completed = excluded.date_completed,
			status = excluded.status`,
		arg.CharacterID,
		arg.ContractID,
		optional.ToNullInt64(arg.AcceptorID),
		optional.ToNullInt64(arg.AssigneeID),
		string(arg.Availability),
		arg.Buyout,
		arg.Collateral,
		optional.ToNullTime(arg.DateAccepted),
		optional.ToNullTime(arg.DateCompleted),
		arg.DateExpired,
		arg.DateIssued,
		arg.DaysToComplete,
		optional.ToNullInt64(arg.EndLocationID),
		arg.ForCorporation,
		arg.IssuerID,
		arg.IssuerCorporationID,
		arg.Price,
		arg.Reward,
		optional.ToNullInt64(arg.StartLocationID),
		string(arg.Status),
		arg.Title,
		string(arg.Type),
		arg.Volume,
	)
	if err != nil {
		return fmt.Errorf("update or create contract %d for character %d: %w", arg.ContractID, arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterContract(ctx context.Context, characterID, contractID int32) (*app.CharacterContract, error) {
	var row characterContractDB
	err := st.db.GetContext(
		ctx, &row,
		"SELECT * FROM character_contracts WHERE character_id = ? AND contract_id = ?",
		characterID, contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("get contract %d for character %d: %w", contractID, characterID, convertGetError(err))
	}
	return st.characterContractFromDBModel(ctx, row)
}

func (st *Storage) ListCharacterContracts(ctx context.Context, characterID int32) ([]*app.CharacterContract, error) {
	var rows []characterContractDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_contracts WHERE character_id = ? ORDER BY date_issued DESC",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contracts for character %d: %w", characterID, err)
	}
	oo := make([]*app.CharacterContract, len(rows))
	for i, row := range rows {
		o, err := st.characterContractFromDBModel(ctx, row)
		if err != nil {
			return nil, err
		}
		oo[i] = o
	}
	return oo, nil
}

// ListCharacterContractIDs returns the native IDs of all stored contracts.
func (st *Storage) ListCharacterContractIDs(ctx context.Context, characterID int32) (set.Set[int32], error) {
	var ids []int32
	err := st.db.SelectContext(
		ctx, &ids,
		"SELECT contract_id FROM character_contracts WHERE character_id = ?",
		characterID,
	)
	if err != nil {
		return set.Set[int32]{}, fmt.Errorf("list contract ids for character %d: %w", characterID, err)
	}
	return set.Of(ids...), nil
}

func (st *Storage) characterContractFromDBModel(ctx context.Context, row characterContractDB) (*app.CharacterContract, error) {
	r := newEntityResolver()
	r.addID(row.IssuerID, row.IssuerCorporationID)
	r.add(row.AcceptorID, row.AssigneeID)
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	o := &app.CharacterContract{
		ID:                row.ID,
		CharacterID:       int32(row.CharacterID),
		ContractID:        int32(row.ContractID),
		Acceptor:          entityOrNil(entities, row.AcceptorID),
		Assignee:          entityOrNil(entities, row.AssigneeID),
		Availability:      app.ContractAvailability(row.Availability),
		Buyout:            row.Buyout,
		Collateral:        row.Collateral,
		DateAccepted:      optional.FromNullTime(row.DateAccepted),
		DateCompleted:     optional.FromNullTime(row.DateCompleted),
		DateExpired:       row.DateExpired,
		DateIssued:        row.DateIssued,
		DaysToComplete:    int32(row.DaysToComplete),
		ForCorporation:    row.ForCorporation,
		Issuer:            entities[int32(row.IssuerID)],
		IssuerCorporation: entities[int32(row.IssuerCorporationID)],
		Price:             row.Price,
		Reward:            row.Reward,
		Status:            app.ContractStatus(row.Status),
		Title:             row.Title,
		Type:              app.ContractType(row.Type),
		Volume:            row.Volume,
	}
	if row.StartLocationID.Valid {
		l, err := st.GetLocation(ctx, row.StartLocationID.Int64)
		if err != nil {
			return nil, err
		}
		o.StartLocation = l
	}
	if row.EndLocationID.Valid {
		l, err := st.GetLocation(ctx, row.EndLocationID.Int64)
		if err != nil {
			return nil, err
		}
		o.EndLocation = l
	}
	return o, nil
}
