// Package pdf genera la hoja de ruta imprimible que acompaña al mensajero.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Hoja de ruta + fecha  │  Estado + ID corto          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MENSAJERO: Nombre / Tel  │  Distancia / Tiempo estimado     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PARADAS: # | Pedido | Cliente | Dirección | Productos       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Paradas / Unidades / Valor a recaudar              │
//	│  FOOTER: QR con el ID de la ruta + firma de recibido         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	approute "github.com/jhoicas/gestor-api/internal/application/route"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ approute.ManifestGenerator = (*MarotoManifestGenerator)(nil)

// MarotoManifestGenerator implementa route.ManifestGenerator usando Maroto v2.
type MarotoManifestGenerator struct {
	company string
}

// NewMarotoManifestGenerator construye el generador. company va en el encabezado.
func NewMarotoManifestGenerator(company string) *MarotoManifestGenerator {
	return &MarotoManifestGenerator{company: company}
}

// GenerateRouteManifest genera el PDF y devuelve sus bytes.
func (g *MarotoManifestGenerator) GenerateRouteManifest(_ context.Context, data approute.ManifestData) ([]byte, error) {
	if data.Route == nil || data.Courier == nil {
		return nil, fmt.Errorf("pdf: ruta y mensajero son obligatorios")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de ruta", true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(courierRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(data.Stops) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin pedidos asignados", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	for _, r := range stopRows(data.Stops) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(data))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa + fecha planificada (izq) y estado + ID (der).
func (g *MarotoManifestGenerator) headerRow(data approute.ManifestData) core.Row {
	rt := data.Route
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(g.company, "Hoja de ruta"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Fecha planificada: "+rt.PlannedDate.Format("02/01/2006"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("HOJA DE RUTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(string(rt.Status), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Generada: "+data.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// courierRow: mensajero y métricas de la ruta.
func courierRow(data approute.ManifestData) core.Row {
	rt := data.Route
	distance, minutes := "—", "—"
	if rt.DistanceKm != nil {
		distance = fmt.Sprintf("%.1f km", *rt.DistanceKm)
	}
	if rt.EstimatedMinutes != nil {
		minutes = fmt.Sprintf("%d min", *rt.EstimatedMinutes)
	}
	return row.New(14).Add(
		col.New(7).Add(
			text.New("MENSAJERO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(data.Courier.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("Tel: "+nonEmpty(data.Courier.Phone, "—"), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Distancia: "+distance, props.Text{Size: 8, Align: align.Right, Top: 6}),
			text.New("Tiempo estimado: "+minutes, props.Text{Size: 8, Align: align.Right, Top: 11}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de paradas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Pedido", 2, align.Left),
		h("Cliente", 2, align.Left),
		h("Dirección", 3, align.Left),
		h("Productos", 3, align.Left),
		h("Valor", 1, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// stopRows: una fila por parada; la altura crece con las líneas del pedido.
func stopRows(stops []approute.ManifestStop) []core.Row {
	result := make([]core.Row, 0, len(stops))
	for _, s := range stops {
		lines := make([]string, 0, len(s.Lines))
		for _, l := range s.Lines {
			lines = append(lines, fmt.Sprintf("%d x %s", l.Quantity, l.ProductName))
		}
		height := float64(7 + 4*max(len(lines)-1, 0))
		customer := nonEmpty(s.CustomerName, "—")
		if s.Phone != "" {
			customer += "\n" + s.Phone
		}
		result = append(result, row.New(height).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", s.Sequence), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(s.OrderCode, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(customer, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(s.Address, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(strings.Join(lines, "\n"), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New("$"+formatMoney(s.Total.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: resumen alineado a la derecha.
func totalsRow(data approute.ManifestData) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Paradas:"),
			label("Unidades:"),
			text.New("VALOR A RECAUDAR:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 10,
			}),
		),
		col.New(3).Add(
			text.New(fmt.Sprintf("%d", len(data.Stops)), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(fmt.Sprintf("%d", data.TotalUnits()), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			text.New("$"+formatMoney(data.TotalAmount().StringFixed(0)), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 10,
			}),
		),
	)
}

// footerRow: QR con el ID de la ruta y espacio para firma.
func footerRow(data approute.ManifestData) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(data.Route.ID, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Ruta "+data.Route.ID, props.Text{Size: 7, Top: 4, Left: 3, Color: colorGray}),
			text.New("Recibido por: ______________________________", props.Text{Size: 9, Top: 20, Left: 3}),
			text.New("Firma del mensajero: _______________________", props.Text{Size: 9, Top: 30, Left: 3}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	n := len(s)
	if n <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	buf := make([]byte, 0, n+n/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
