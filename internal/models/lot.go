package models

import "time"

// Lot statut values. Transitions go through the lot service only:
// disponible -> reserve -> remis, with reserve -> disponible as the
// single reverse edge.
const (
	LotDisponible = "disponible"
	LotReserve    = "reserve"
	LotRemis      = "remis"
)

// Lot is a donated raffle prize. ReservedBy is non-nil iff statut is
// reserve, and is never equal to ParentID.
type Lot struct {
	ID          string    `json:"id"`
	Nom         string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	Icone       string    `json:"icone,omitempty"`
	Statut      string    `json:"statut"`
	ParentID    string    `json:"parent_id"`
	ReservedBy  *string   `json:"reserved_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidLotStatut reports whether s is one of the three lot states.
func ValidLotStatut(s string) bool {
	return s == LotDisponible || s == LotReserve || s == LotRemis
}
