package models

import "strings"

// Client is the person requesting freight quotations.
type Client struct {
	ID      uint   `json:"cliente_id" gorm:"column:cliente_id;primaryKey"`
	Name    string `json:"nombre" gorm:"column:nombre;not null"`
	Surname string `json:"apellido" gorm:"column:apellido"`
	Phone   string `json:"telefono" gorm:"column:telefono;not null;index"` // E.164, receives the SMS codes
	Timestamps
}

func (Client) TableName() string {
	return "clientes"
}

// ClientInput is the body accepted on create and update.
type ClientInput struct {
	Name    string `json:"nombre"`
	Surname string `json:"apellido"`
	Phone   string `json:"telefono"`
}

// NormalizePhone strips spaces and dashes and prefixes countryCode when the
// number has no international prefix.
func NormalizePhone(phone, countryCode string) string {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if p == "" || strings.HasPrefix(p, "+") {
		return p
	}
	code := strings.TrimPrefix(countryCode, "+")
	return "+" + code + strings.TrimPrefix(p, code)
}
