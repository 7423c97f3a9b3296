package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// ErrManifestUnavailable no hay generador de manifiestos configurado.
var ErrManifestUnavailable = errors.New("route manifest generator not configured")

// ManifestGenerator puerto de salida para la hoja de ruta imprimible.
type ManifestGenerator interface {
	GenerateRouteManifest(ctx context.Context, data ManifestData) ([]byte, error)
}

// ManifestData todo lo que necesita el generador, ya resuelto.
type ManifestData struct {
	Route       *entity.Route
	Courier     *entity.Courier
	Stops       []ManifestStop
	GeneratedAt time.Time
}

// ManifestStop una parada de la ruta: el pedido con su cliente y líneas.
type ManifestStop struct {
	Sequence     int
	OrderCode    string
	OrderStatus  entity.OrderStatus
	CustomerName string
	Phone        string
	Address      string
	Notes        string
	Total        decimal.Decimal
	Lines        []ManifestLine
}

// ManifestLine línea de pedido con el nombre del producto.
type ManifestLine struct {
	ProductName string
	Quantity    int
}

// TotalUnits suma de unidades de todas las paradas.
func (d ManifestData) TotalUnits() int {
	n := 0
	for _, s := range d.Stops {
		for _, l := range s.Lines {
			n += l.Quantity
		}
	}
	return n
}

// TotalAmount suma de los totales de los pedidos.
func (d ManifestData) TotalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range d.Stops {
		sum = sum.Add(s.Total)
	}
	return sum
}

// Manifest genera el PDF de la hoja de ruta. Devuelve bytes y nombre de archivo sugerido.
func (uc *UseCase) Manifest(ctx context.Context, routeID string) ([]byte, string, error) {
	if uc.generator == nil {
		return nil, "", ErrManifestUnavailable
	}

	// ── 1. Cargar ruta y mensajero ───────────────────────────────────────────
	rt, err := uc.Get(ctx, routeID)
	if err != nil {
		return nil, "", err
	}
	courier, err := uc.reads.Couriers.GetByID(ctx, rt.CourierID)
	if err != nil {
		return nil, "", fmt.Errorf("get courier: %w", err)
	}
	if courier == nil {
		return nil, "", domain.NotFound("courier", rt.CourierID)
	}

	// ── 2. Resolver pedidos, clientes y productos ────────────────────────────
	names := make(map[string]string)
	stops := make([]ManifestStop, 0, len(rt.OrderIDs))
	for i, orderID := range rt.OrderIDs {
		o, err := uc.reads.Orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, "", fmt.Errorf("get order: %w", err)
		}
		if o == nil {
			// el pedido se borró físicamente; la hoja sigue siendo útil sin él
			uc.log.Warn().Str("route_id", rt.ID).Str("order_id", orderID).Msg("pedido de la ruta no encontrado")
			continue
		}
		stop := ManifestStop{
			Sequence:    i + 1,
			OrderCode:   o.Code,
			OrderStatus: o.Status,
			Address:     o.Address,
			Notes:       o.Notes,
			Total:       o.Total,
			Lines:       make([]ManifestLine, 0, len(o.Items)),
		}
		customer, err := uc.reads.Customers.GetByID(ctx, o.CustomerID)
		if err != nil {
			return nil, "", fmt.Errorf("get customer: %w", err)
		}
		if customer != nil {
			stop.CustomerName = customer.Name
			stop.Phone = customer.Phone
		}
		for _, it := range o.Items {
			name, ok := names[it.ProductID]
			if !ok {
				p, err := uc.reads.Products.GetByID(ctx, it.ProductID)
				if err != nil {
					return nil, "", fmt.Errorf("get product: %w", err)
				}
				name = it.ProductID
				if p != nil {
					name = p.Name
				}
				names[it.ProductID] = name
			}
			stop.Lines = append(stop.Lines, ManifestLine{ProductName: name, Quantity: it.Quantity})
		}
		stops = append(stops, stop)
	}

	// ── 3. Generar PDF ───────────────────────────────────────────────────────
	data := ManifestData{Route: rt, Courier: courier, Stops: stops, GeneratedAt: uc.clock.Now()}
	pdfBytes, err := uc.generator.GenerateRouteManifest(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("generar manifiesto: %w", err)
	}

	filename := fmt.Sprintf("ruta-%s-%s.pdf", rt.PlannedDate.Format("20060102"), shortID(rt.ID))
	return pdfBytes, filename, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
