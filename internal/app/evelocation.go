package app

import "time"

// EveLocationVariant is the class of a location ID.
type EveLocationVariant int

const (
	EveLocationVariantUnknown EveLocationVariant = iota
	EveLocationVariantSolarSystem
	EveLocationVariantStation
	EveLocationVariantStructure
)

// LocationVariantFromID classifies a location ID by its numeric range.
func LocationVariantFromID(id int64) EveLocationVariant {
	switch {
	case id >= 30_000_000 && id < 33_000_000:
		return EveLocationVariantSolarSystem
	case id >= 60_000_000 && id < 64_000_000:
		return EveLocationVariantStation
	case id > 1_000_000_000_000:
		return EveLocationVariantStructure
	}
	return EveLocationVariantUnknown
}

// An EveLocation is a cached place record. A location with neither solar
// system nor type is empty: its ID is known, but resolving the detail failed
// or was denied. Empty locations are eligible for re-resolution after a
// grace period.
type EveLocation struct {
	ID          int64
	Name        string
	SolarSystem *EveEntity
	Type        *EveEntity
	Owner       *EveEntity
	UpdatedAt   time.Time
}

// IsEmpty reports whether the location detail is unresolved.
func (l *EveLocation) IsEmpty() bool {
	return l.SolarSystem == nil && l.Type == nil
}

// Variant returns the location's ID class.
func (l *EveLocation) Variant() EveLocationVariant {
	return LocationVariantFromID(l.ID)
}

// DisplayName returns a name for display, falling back to the ID class.
func (l *EveLocation) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	switch l.Variant() {
	case EveLocationVariantStructure:
		return "Unknown structure"
	case EveLocationVariantStation:
		return "Unknown station"
	case EveLocationVariantSolarSystem:
		return "Unknown solar system"
	}
	return "Unknown location"
}
