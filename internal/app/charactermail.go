package app

import "time"

// A CharacterMailList is a mailing list subscription of a character.
type CharacterMailList struct {
	CharacterID int32
	ListID      int32
	Name        string
}

// A CharacterMailLabel is a mail label of a character.
type CharacterMailLabel struct {
	CharacterID int32
	LabelID     int32
	Name        string
	Color       string
	UnreadCount int
}

// A CharacterMail is a mail message of a character.
//
// Headers and bodies are synced in separate passes. A mail with an empty
// body has not had its body fetched yet.
type CharacterMail struct {
	ID          int64
	CharacterID int32
	MailID      int32
	From        *EveEntity
	Subject     string
	Timestamp   time.Time
	IsRead      bool
	Body        string
	Labels      []int32
	Recipients  []*EveEntity
}
