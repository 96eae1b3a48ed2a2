// Package pdf genera el acta de un conteo físico de inventario.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sucursal + dirección │  ACTA DE CONTEO + Fecha      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Responsable / Estado / Notas                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Inicial | Entr. | Sal. | Teór. | Fís. | Dif│
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Sobrantes / Faltantes / Líneas con diferencia      │
//	│  FIRMAS + QR con el id del conteo                            │
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	domaininventory "github.com/jhoicas/agro-inventario/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 99, Blue: 52}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.CountReportGenerator = (*CountReportGenerator)(nil)

// CountReportGenerator implementa inventory.CountReportGenerator usando Maroto v2.
type CountReportGenerator struct{}

// NewCountReportGenerator construye el generador.
func NewCountReportGenerator() *CountReportGenerator { return &CountReportGenerator{} }

// GenerateCountReport genera el PDF y devuelve sus bytes.
func (g *CountReportGenerator) GenerateCountReport(
	_ context.Context,
	count *entity.InventoryCount,
	branch *entity.Branch,
	items []*entity.InventoryCountItem,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de conteo físico", true).
		WithAuthor(nonEmpty(count.Responsible, branch.Name), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(count, branch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(infoRow(count))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(items))
	m.AddRows(line.NewRow(8))
	m.AddRows(signatureRow(count))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(count *entity.InventoryCount, branch *entity.Branch) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(branch.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(branch.Address, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ACTA DE CONTEO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Fecha: "+count.Date.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func infoRow(count *entity.InventoryCount) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Responsable: %s   |   Estado: %s",
				nonEmpty(count.Responsible, "—"), statusLabel(count),
			), props.Text{Size: 8, Top: 1}),
			text.New("Notas: "+nonEmpty(count.Notes, "—"), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 4, align.Left),
		h("Inicial", 1, align.Right),
		h("Entradas", 1, align.Right),
		h("Salidas", 1, align.Right),
		h("Teórico", 2, align.Right),
		h("Físico", 1, align.Right),
		h("Diferencia", 2, align.Right),
	)
}

func tableDetailRows(items []*entity.InventoryCountItem) []core.Row {
	cell := func(s string, size int, c *props.Color) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: c}))
	}
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		var diffColor *props.Color
		if it.Difference.IsNegative() {
			diffColor = colorRed
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(it.ProductName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			cell(formatQuantity(it.InitialQuantity), 1, nil),
			cell(formatQuantity(it.InflowQuantity), 1, nil),
			cell(formatQuantity(it.OutflowQuantity), 1, nil),
			cell(formatQuantity(it.TheoreticalQuantity), 2, nil),
			cell(formatQuantity(it.PhysicalQuantity), 1, nil),
			cell(formatQuantity(it.Difference), 2, diffColor),
		))
	}
	return result
}

func summaryRow(items []*entity.InventoryCountItem) core.Row {
	overage, shortage := decimal.Zero, decimal.Zero
	lines := 0
	for _, it := range items {
		switch {
		case it.Difference.IsPositive():
			overage = overage.Add(it.Difference)
			lines++
		case it.Difference.IsNegative():
			shortage = shortage.Add(it.Difference.Neg())
			lines++
		}
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(18).Add(
		col.New(6),
		col.New(3).Add(
			label("Sobrantes:"),
			label("Faltantes:"),
			label("Líneas con diferencia:"),
		),
		col.New(3).Add(
			value(formatQuantity(overage)),
			value(formatQuantity(shortage)),
			value(fmt.Sprintf("%d de %d", lines, len(items))),
		),
	)
}

func signatureRow(count *entity.InventoryCount) core.Row {
	return row.New(30).Add(
		col.New(4).Add(
			text.New("______________________________", props.Text{Size: 8, Top: 14}),
			text.New("Responsable del conteo", props.Text{Size: 8, Top: 19, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("______________________________", props.Text{Size: 8, Top: 14}),
			text.New("Revisó", props.Text{Size: 8, Top: 19, Color: colorGray}),
		),
		col.New(4).Add(code.NewQr(domaininventory.AdjustmentRemission(count.ID), props.Rect{
			Percent: 90,
			Center:  true,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(count *entity.InventoryCount) string {
	switch {
	case count.AdjustmentsApplied:
		return "ajustes aplicados"
	case count.Status == entity.CountStatusCompleted:
		return "completado"
	default:
		return "en progreso"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQuantity escribe la cantidad con dos decimales, punto de miles y coma decimal.
// Ej: "1250.5" → "1.250,50", "-3" → "-3,00"
func formatQuantity(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
