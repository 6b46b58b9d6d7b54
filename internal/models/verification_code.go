package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// VerificationCode is a single-use code sent to a client by SMS. A client may
// hold several unconsumed codes at once; any of them is valid.
type VerificationCode struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ClientID  uint      `json:"cliente_id" gorm:"column:cliente_id;not null;index"`
	Code      string    `json:"codigo_verificacion" gorm:"column:codigo_verificacion;size:6;not null;index"`
	Consumed  bool      `json:"estado" gorm:"column:estado;not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "codigo_cotizacion"
}

// BeforeCreate stores codes in their canonical form.
func (v *VerificationCode) BeforeCreate(tx *gorm.DB) error {
	v.Code = NormalizeCode(v.Code)
	return nil
}

// NormalizeCode turns user input such as " abc-123 " into "ABC123".
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", " ", "", "_", "").Replace(strings.TrimSpace(code)))
}
