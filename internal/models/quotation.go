package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category is the service tier of a quotation.
type Category string

const (
	CategoryFirstClass Category = "primera_clase"
	CategoryMidClass   Category = "clase_media"
	CategoryCommercial Category = "comercial"
)

// ParseCategory accepts the three known tiers, ignoring case and padding.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryFirstClass, CategoryMidClass, CategoryCommercial:
		return c, true
	default:
		return "", false
	}
}

// QuotationStatus tracks the client's decision on a quotation.
type QuotationStatus string

const (
	StatusPending  QuotationStatus = "pendiente"
	StatusAccepted QuotationStatus = "aceptada"
	StatusRejected QuotationStatus = "rechazada"
)

// Decision is the outcome a client submits for a pending quotation.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Status maps a decision to the terminal status it produces.
func (d Decision) Status() QuotationStatus {
	if d == DecisionAccept {
		return StatusAccepted
	}
	return StatusRejected
}

// ErrNotPending is returned when a decision is applied to a decided quotation.
var ErrNotPending = errors.New("quotation is not pending")

// Quotation is a priced freight request from a client to a destination.
type Quotation struct {
	ID                 uint            `json:"cotizacion_id" gorm:"column:cotizacion_id;primaryKey"`
	ClientID           uint            `json:"cliente_id" gorm:"column:cliente_id;not null;index"`
	DestinationID      uint            `json:"destino_id" gorm:"column:destino_id;not null;index"`
	Category           Category        `json:"categoria" gorm:"column:categoria;size:20"`
	CategoryPercentage int             `json:"porcentaje_categoria" gorm:"column:porcentaje_categoria"`
	Price              float64         `json:"precio" gorm:"column:precio"`
	Folio              string          `json:"folio" gorm:"column:folio;index"`
	Status             QuotationStatus `json:"aprobada" gorm:"column:aprobada;size:20;default:'pendiente'"`
	VerificationCode   string          `json:"codigo_verificacion" gorm:"column:codigo_verificacion;size:6"`
	IDImage            string          `json:"INE" gorm:"column:ine"`
	Timestamps
}

func (Quotation) TableName() string {
	return "cotizaciones"
}

// BeforeCreate makes every new quotation start pending.
func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.Status == "" {
		q.Status = StatusPending
	}
	return nil
}

// IsPending reports whether the quotation still awaits a decision.
func (q *Quotation) IsPending() bool {
	return q.Status == "" || q.Status == StatusPending
}

// Decide moves a pending quotation to its terminal status.
func (q *Quotation) Decide(d Decision) error {
	if !q.IsPending() {
		return ErrNotPending
	}
	q.Status = d.Status()
	q.UpdatedAt = time.Now()
	return nil
}
