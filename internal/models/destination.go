package models

// Destination is a delivery postal code with the distance and per-km rate
// used to price quotations. Km and PricePerKm are entered by an administrator.
type Destination struct {
	ID         uint    `json:"destino_id" gorm:"column:destino_id;primaryKey"`
	PostalCode string  `json:"codigo_postal" gorm:"column:codigo_postal;size:5;index"`
	Country    string  `json:"pais" gorm:"column:pais"`
	City       string  `json:"ciudad" gorm:"column:ciudad"`
	State      string  `json:"estado" gorm:"column:estado"`
	Km         float64 `json:"km" gorm:"column:km"`
	PricePerKm float64 `json:"precio_km" gorm:"column:precio_km"`
	Timestamps
}

func (Destination) TableName() string {
	return "destinos"
}

// DestinationInput is the body accepted on create and update.
type DestinationInput struct {
	PostalCode string  `json:"codigo_postal"`
	Km         float64 `json:"km"`
	PricePerKm float64 `json:"precio_km"`
}

// Origin is a pickup postal code.
type Origin struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	PostalCode string `json:"codigo_postal" gorm:"column:codigo_postal;size:5;index"`
	Country    string `json:"pais" gorm:"column:pais"`
	City       string `json:"ciudad" gorm:"column:ciudad"`
	State      string `json:"estado" gorm:"column:estado"`
	Timestamps
}

func (Origin) TableName() string {
	return "origenes"
}

// Place is what the geocoder resolves a postal code to.
type Place struct {
	PostalCode string `json:"cp"`
	Country    string `json:"pais"`
	City       string `json:"ciudad"`
	State      string `json:"estado"`
}
