package app

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// A CharacterSection is one independently synchronized data domain of a character.
type CharacterSection string

const (
	SectionCharacterDetails   CharacterSection = "character_details"
	SectionCorporationHistory CharacterSection = "corporation_history"
	SectionJumpClones         CharacterSection = "jump_clones"
	SectionMails              CharacterSection = "mails"
	SectionSkills             CharacterSection = "skills"
	SectionWalletBalance      CharacterSection = "wallet_balance"
	SectionWalletJournal      CharacterSection = "wallet_journal"
	SectionContracts          CharacterSection = "contracts"
)

// CharacterSections is the closed set of sections.
// Aggregate health is derived against this set.
var CharacterSections = []CharacterSection{
	SectionCharacterDetails,
	SectionCorporationHistory,
	SectionJumpClones,
	SectionMails,
	SectionSkills,
	SectionWalletBalance,
	SectionWalletJournal,
	SectionContracts,
}

func (cs CharacterSection) String() string {
	return string(cs)
}

func (cs CharacterSection) DisplayName() string {
	t := strings.ReplaceAll(string(cs), "_", " ")
	c := cases.Title(language.English)
	return c.String(t)
}

// Scopes returns the ESI scopes required for updating a section.
func (cs CharacterSection) Scopes() []string {
	m := map[CharacterSection][]string{
		SectionCharacterDetails:   {},
		SectionCorporationHistory: {},
		SectionJumpClones:         {"esi-clones.read_clones.v1"},
		SectionMails:              {"esi-mail.read_mail.v1"},
		SectionSkills:             {"esi-skills.read_skills.v1"},
		SectionWalletBalance:      {"esi-wallet.read_character_wallet.v1"},
		SectionWalletJournal:      {"esi-wallet.read_character_wallet.v1"},
		SectionContracts:          {"esi-contracts.read_character_contracts.v1"},
	}
	return m[cs]
}

// CharacterUpdateSectionParams are the arguments for updating a section.
type CharacterUpdateSectionParams struct {
	CharacterID int32
	Section     CharacterSection
	ForceUpdate bool
	MaxMails    int
}
