package models

import "strings"

// Administrator manages the catalog and reviews quotations.
type Administrator struct {
	ID           uint   `json:"admin_id" gorm:"column:admin_id;primaryKey"`
	Name         string `json:"nombre" gorm:"column:nombre"`
	Surname      string `json:"apellido" gorm:"column:apellido"`
	Email        string `json:"email" gorm:"column:email;not null;index"`
	PasswordHash string `json:"-" gorm:"column:contrasena;not null"`
	Timestamps
}

func (Administrator) TableName() string {
	return "administradores"
}

// AdministratorInput is the body accepted on create and update.
type AdministratorInput struct {
	Name     string `json:"nombre"`
	Surname  string `json:"apellido"`
	Email    string `json:"email"`
	Password string `json:"contrasena"`
}

// NormalizeEmail lowercases and trims an address for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
