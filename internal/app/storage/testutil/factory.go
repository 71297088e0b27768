package testutil

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/icrowley/fake"
	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

// EVE IDs
const (
	startIDAlliance      = 99_000_001
	startIDCharacter     = 90_000_001
	startIDCorporation   = 98_000_001
	startIDInventoryType = 101
	startIDOther         = 10_001
	startIDSolarSystem   = 30_000_001
	startIDStation       = 60_000_001
	startIDStructure     = 1_000_000_000_001
)

type Factory struct {
	st *storage.Storage
	db *sqlx.DB
}

func NewFactory(st *storage.Storage, db *sqlx.DB) Factory {
	return Factory{st: st, db: db}
}

func (f Factory) RandomTime() time.Time {
	hours := time.Duration(rand.IntN(100_000))
	seconds := time.Duration(rand.IntN(3600))
	d := hours*time.Hour + seconds*time.Second
	return time.Now().Add(-d).UTC()
}

// CreateCharacter creates and returns a new character.
func (f Factory) CreateCharacter(args ...storage.CreateCharacterParams) *app.Character {
	ctx := context.Background()
	var arg storage.CreateCharacterParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = int32(f.calcNewID("characters", "id", startIDCharacter))
	}
	if arg.Name == "" {
		arg.Name = fake.FullName()
	}
	c, err := f.st.CreateCharacter(ctx, arg)
	if err != nil {
		panic(err)
	}
	return c
}

// CreateCharacterToken creates and returns a new token with all scopes.
func (f Factory) CreateCharacterToken(args ...storage.UpdateOrCreateCharacterTokenParams) *app.CharacterToken {
	ctx := context.Background()
	var arg storage.UpdateOrCreateCharacterTokenParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.AccessToken == "" {
		arg.AccessToken = fmt.Sprintf("GeneratedAccessToken#%d", rand.IntN(1000000))
	}
	if arg.RefreshToken == "" {
		arg.RefreshToken = fmt.Sprintf("GeneratedRefreshToken#%d", rand.IntN(1000000))
	}
	if arg.ExpiresAt.IsZero() {
		arg.ExpiresAt = time.Now().Add(time.Minute * 20).UTC()
	}
	if arg.TokenType == "" {
		arg.TokenType = "Bearer"
	}
	if len(arg.Scopes) == 0 {
		seen := make(map[string]bool)
		for _, s := range app.CharacterSections {
			for _, scope := range s.Scopes() {
				if !seen[scope] {
					seen[scope] = true
					arg.Scopes = append(arg.Scopes, scope)
				}
			}
		}
	}
	if err := f.st.UpdateOrCreateCharacterToken(ctx, arg); err != nil {
		panic(err)
	}
	t, err := f.st.GetCharacterToken(ctx, arg.CharacterID)
	if err != nil {
		panic(err)
	}
	return t
}

type CharacterSectionStatusParams struct {
	CharacterID  int32
	Section      app.CharacterSection
	Data         any
	ErrorMessage string
	IsSuccess    bool
}

// CreateCharacterSectionStatus creates and returns a new status row.
// The row reports success unless an error message is given.
func (f Factory) CreateCharacterSectionStatus(args ...CharacterSectionStatusParams) *app.CharacterSectionStatus {
	ctx := context.Background()
	var arg CharacterSectionStatusParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.Section == "" {
		panic("must define a section in test factory")
	}
	if arg.Data == nil {
		arg.Data = fmt.Sprintf("content-hash-%d-%s-%s", arg.CharacterID, arg.Section, time.Now())
	}
	hash, err := calcContentHash(arg.Data)
	if err != nil {
		panic(err)
	}
	o, err := f.st.UpdateOrCreateCharacterSectionStatus(ctx, storage.UpdateOrCreateCharacterSectionStatusParams{
		CharacterID:  arg.CharacterID,
		Section:      arg.Section,
		IsSuccess:    arg.IsSuccess || arg.ErrorMessage == "",
		ErrorMessage: arg.ErrorMessage,
		ContentHash:  hash,
	})
	if err != nil {
		panic(err)
	}
	return o
}

// CreateCharacterMail creates and returns a new mail with a fetched body.
func (f Factory) CreateCharacterMail(args ...storage.UpdateOrCreateCharacterMailParams) *app.CharacterMail {
	ctx := context.Background()
	var arg storage.UpdateOrCreateCharacterMailParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.FromID == 0 {
		from := f.CreateEveEntityCharacter()
		arg.FromID = from.ID
	}
	if arg.MailID == 0 {
		arg.MailID = int32(f.calcNewIDWithCharacter("character_mails", "mail_id", arg.CharacterID))
	}
	if arg.Subject == "" {
		arg.Subject = fake.Sentence()
	}
	if arg.Timestamp.IsZero() {
		arg.Timestamp = time.Now().UTC()
	}
	if len(arg.RecipientIDs) == 0 {
		e := f.CreateEveEntityCharacter()
		arg.RecipientIDs = []int32{e.ID}
	}
	if err := f.st.UpdateOrCreateCharacterMail(ctx, arg); err != nil {
		panic(err)
	}
	if err := f.st.UpdateCharacterMailBody(ctx, arg.CharacterID, arg.MailID, fake.Paragraph()); err != nil {
		panic(err)
	}
	mail, err := f.st.GetCharacterMail(ctx, arg.CharacterID, arg.MailID)
	if err != nil {
		panic(err)
	}
	return mail
}

// CreateCharacterMailLabel creates and returns a new mail label.
func (f Factory) CreateCharacterMailLabel(args ...storage.UpdateOrCreateCharacterMailLabelParams) *app.CharacterMailLabel {
	ctx := context.Background()
	var arg storage.UpdateOrCreateCharacterMailLabelParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.LabelID == 0 {
		l := int32(f.calcNewIDWithCharacter("character_mail_labels", "label_id", arg.CharacterID))
		arg.LabelID = max(l, 10) // generate "custom" mail label
	}
	if arg.Name == "" {
		arg.Name = fmt.Sprintf("%s %s", fake.Color(), fake.Language())
	}
	if arg.Color == "" {
		arg.Color = "#FFFFFF"
	}
	if arg.UnreadCount == 0 {
		arg.UnreadCount = rand.IntN(1000)
	}
	label, err := f.st.UpdateOrCreateCharacterMailLabel(ctx, arg)
	if err != nil {
		panic(err)
	}
	return label
}

// CreateCharacterMailList creates and returns a new mailing list subscription.
func (f Factory) CreateCharacterMailList(args ...storage.UpdateOrCreateCharacterMailListParams) *app.CharacterMailList {
	ctx := context.Background()
	var arg storage.UpdateOrCreateCharacterMailListParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.ListID == 0 {
		e := f.CreateEveEntityWithCategory(app.EveEntityMailList)
		arg.ListID = e.ID
		if arg.Name == "" {
			arg.Name = e.Name
		}
	}
	if arg.Name == "" {
		arg.Name = fmt.Sprintf("%s %s", fake.Color(), fake.Industry())
	}
	if err := f.st.UpdateOrCreateCharacterMailList(ctx, arg); err != nil {
		panic(err)
	}
	l, err := f.st.GetCharacterMailList(ctx, arg.CharacterID, arg.ListID)
	if err != nil {
		panic(err)
	}
	return l
}

// CreateCharacterWalletJournalEntry creates and returns a new journal entry.
func (f Factory) CreateCharacterWalletJournalEntry(args ...storage.UpsertCharacterWalletJournalEntryParams) *app.CharacterWalletJournalEntry {
	ctx := context.Background()
	var arg storage.UpsertCharacterWalletJournalEntryParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.RefID == 0 {
		arg.RefID = f.calcNewIDWithCharacter("character_wallet_journal", "ref_id", arg.CharacterID)
	}
	if arg.Amount == 0 {
		sign := float64(1)
		if rand.Float32() > 0.5 {
			sign = -1
		}
		arg.Amount = rand.Float64() * 10_000_000_000 * sign
	}
	if arg.Balance == 0 {
		arg.Balance = rand.Float64() * 100_000_000_000
	}
	if arg.ContextIDType == "" {
		arg.ContextIDType = app.ContextIDTypeUndefined
	}
	if arg.Date.IsZero() {
		arg.Date = time.Now().UTC()
	}
	if arg.Description == "" {
		arg.Description = fake.Sentence()
	}
	if arg.RefType == "" {
		arg.RefType = "player_donation"
	}
	if arg.FirstPartyID.IsEmpty() {
		e := f.CreateEveEntityCharacter()
		arg.FirstPartyID = optional.New(e.ID)
	}
	if arg.SecondPartyID.IsEmpty() {
		e := f.CreateEveEntityCharacter()
		arg.SecondPartyID = optional.New(e.ID)
	}
	if err := f.st.UpsertCharacterWalletJournalEntry(ctx, arg); err != nil {
		panic(fmt.Sprintf("%s|%+v", err, arg))
	}
	ee, err := f.st.ListCharacterWalletJournalEntries(ctx, arg.CharacterID)
	if err != nil {
		panic(err)
	}
	for _, e := range ee {
		if e.RefID == arg.RefID {
			return e
		}
	}
	panic("created wallet journal entry not found")
}

// CreateCharacterContract creates and returns a new contract.
func (f Factory) CreateCharacterContract(args ...storage.UpdateOrCreateCharacterContractParams) *app.CharacterContract {
	ctx := context.Background()
	var arg storage.UpdateOrCreateCharacterContractParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.CharacterID == 0 {
		c := f.CreateCharacter()
		arg.CharacterID = c.ID
	}
	if arg.ContractID == 0 {
		arg.ContractID = int32(f.calcNewIDWithCharacter("character_contracts", "contract_id", arg.CharacterID))
	}
	if arg.Availability == "" {
		arg.Availability = app.ContractAvailabilityPublic
	}
	if arg.DateIssued.IsZero() {
		arg.DateIssued = time.Now().UTC()
	}
	if arg.DateExpired.IsZero() {
		arg.DateExpired = arg.DateIssued.Add(time.Duration(rand.IntN(200)+12) * time.Hour)
	}
	if arg.IssuerID == 0 {
		e := f.CreateEveEntityCharacter()
		arg.IssuerID = e.ID
	}
	if arg.IssuerCorporationID == 0 {
		e := f.CreateEveEntityCorporation()
		arg.IssuerCorporationID = e.ID
	}
	if arg.Status == "" {
		arg.Status = app.ContractStatusOutstanding
	}
	if arg.Type == "" {
		arg.Type = app.ContractTypeItemExchange
	}
	if err := f.st.UpdateOrCreateCharacterContract(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetCharacterContract(ctx, arg.CharacterID, arg.ContractID)
	if err != nil {
		panic(err)
	}
	return o
}

// CreateEveEntity creates and returns a new EveEntity.
func (f Factory) CreateEveEntity(args ...app.EveEntity) *app.EveEntity {
	ctx := context.Background()
	var arg app.EveEntity
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.Category == "" {
		arg.Category = app.EveEntityCharacter
	}
	if arg.ID == 0 {
		m := map[app.EveEntityCategory]int64{
			app.EveEntityAlliance:      startIDAlliance,
			app.EveEntityCharacter:     startIDCharacter,
			app.EveEntityCorporation:   startIDCorporation,
			app.EveEntityInventoryType: startIDInventoryType,
			app.EveEntitySolarSystem:   startIDSolarSystem,
			app.EveEntityStation:       startIDStation,
		}
		start, ok := m[arg.Category]
		if !ok {
			start = startIDOther
		}
		arg.ID = int32(f.calcNewID("eve_entities", "id", start))
	}
	if arg.Name == "" {
		switch arg.Category {
		case app.EveEntityCharacter:
			arg.Name = fake.FullName()
		case app.EveEntityCorporation, app.EveEntityAlliance:
			arg.Name = fake.Company()
		case app.EveEntityMailList:
			arg.Name = fmt.Sprintf("%s %s", fake.Color(), fake.Industry())
		default:
			arg.Name = fmt.Sprintf("%s #%d", arg.Category, arg.ID)
		}
	}
	e, err := f.st.GetOrCreateEveEntity(ctx, storage.CreateEveEntityParams{ID: arg.ID, Name: arg.Name, Category: arg.Category})
	if err != nil {
		panic(fmt.Sprintf("create EveEntity %v: %s", arg, err))
	}
	return e
}

func (f Factory) CreateEveEntityAlliance(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntityWithCategory(app.EveEntityAlliance, args...)
}

func (f Factory) CreateEveEntityCharacter(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntityWithCategory(app.EveEntityCharacter, args...)
}

func (f Factory) CreateEveEntityCorporation(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntityWithCategory(app.EveEntityCorporation, args...)
}

func (f Factory) CreateEveEntitySolarSystem(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntityWithCategory(app.EveEntitySolarSystem, args...)
}

func (f Factory) CreateEveEntityInventoryType(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntityWithCategory(app.EveEntityInventoryType, args...)
}

func (f Factory) CreateEveEntityWithCategory(c app.EveEntityCategory, args ...app.EveEntity) *app.EveEntity {
	var arg app.EveEntity
	if len(args) > 0 {
		arg = args[0]
	}
	arg.Category = c
	return f.CreateEveEntity(arg)
}

func (f Factory) CreateEveLocationStructure(args ...storage.UpdateOrCreateLocationParams) *app.EveLocation {
	return f.createEveLocation(startIDStructure, false, args...)
}

func (f Factory) CreateEveLocationStation(args ...storage.UpdateOrCreateLocationParams) *app.EveLocation {
	return f.createEveLocation(startIDStation, false, args...)
}

func (f Factory) CreateEveLocationEmptyStructure(args ...storage.UpdateOrCreateLocationParams) *app.EveLocation {
	return f.createEveLocation(startIDStructure, true, args...)
}

func (f Factory) createEveLocation(startID int64, isEmpty bool, args ...storage.UpdateOrCreateLocationParams) *app.EveLocation {
	ctx := context.Background()
	var arg storage.UpdateOrCreateLocationParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = f.calcNewID("eve_locations", "id", startID)
	}
	if !isEmpty {
		if arg.Name == "" {
			arg.Name = fake.Color() + " " + fake.Brand()
		}
		if arg.EveSolarSystemID.IsEmpty() {
			x := f.CreateEveEntitySolarSystem()
			arg.EveSolarSystemID = optional.New(x.ID)
		}
		if arg.EveTypeID.IsEmpty() {
			x := f.CreateEveEntityInventoryType()
			arg.EveTypeID = optional.New(x.ID)
		}
		if arg.OwnerID.IsEmpty() {
			x := f.CreateEveEntityCorporation()
			arg.OwnerID = optional.New(x.ID)
		}
	}
	if arg.UpdatedAt.IsZero() {
		arg.UpdatedAt = time.Now().UTC()
	}
	if err := f.st.UpdateOrCreateEveLocation(ctx, arg); err != nil {
		panic(err)
	}
	x, err := f.st.GetLocation(ctx, arg.ID)
	if err != nil {
		panic(err)
	}
	return x
}

func (f Factory) calcNewID(table, idField string, start int64) int64 {
	if start < 1 {
		panic("start must be a positive number")
	}
	var vMax sql.NullInt64
	if err := f.db.QueryRow(fmt.Sprintf("SELECT MAX(%s) FROM %s;", idField, table)).Scan(&vMax); err != nil {
		panic(err)
	}
	return max(vMax.Int64+1, start)
}

func (f Factory) calcNewIDWithCharacter(table, idField string, characterID int32) int64 {
	var vMax sql.NullInt64
	q := fmt.Sprintf("SELECT MAX(%s) FROM %s WHERE character_id = ?;", idField, table)
	if err := f.db.QueryRow(q, characterID).Scan(&vMax); err != nil {
		panic(err)
	}
	return max(vMax.Int64+1, 1)
}

func calcContentHash(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	b2 := md5.Sum(b)
	return hex.EncodeToString(b2[:]), nil
}
