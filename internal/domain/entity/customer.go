package entity

import "time"

// Customer representa un cliente que recibe pedidos.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string // dirección por defecto para entregas
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Courier representa un mensajero que ejecuta rutas de entrega.
type Courier struct {
	ID        string
	Name      string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
