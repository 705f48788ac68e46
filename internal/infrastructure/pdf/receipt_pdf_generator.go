// Package pdf genera la nota de recepción de mercancía de una orden de compra.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nota de recepción    │  N° Recepción + Fecha        │
//	│  ORDEN: N° OC / Proveedor / Ubicación / Estado               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Pedido | Recibido | Pendiente       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el número de recepción + observaciones       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

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

	"github.com/jhoicas/stockledger/internal/application/purchasing"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 40, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ purchasing.ReceiptPDFGenerator = (*MarotoReceiptGenerator)(nil)

// MarotoReceiptGenerator implementa purchasing.ReceiptPDFGenerator usando Maroto v2.
type MarotoReceiptGenerator struct{}

// NewMarotoReceiptGenerator construye el generador.
func NewMarotoReceiptGenerator() *MarotoReceiptGenerator { return &MarotoReceiptGenerator{} }

// GenerateReceiptPDF genera el PDF y devuelve sus bytes.
func (g *MarotoReceiptGenerator) GenerateReceiptPDF(_ context.Context, doc *purchasing.ReceiptDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Nota de recepción "+doc.Receipt.Number, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(orderRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(doc) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(doc *purchasing.ReceiptDocument) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("NOTA DE RECEPCIÓN DE MERCANCÍA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Orden de compra "+doc.Order.Number, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(doc.Receipt.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 2,
			}),
			text.New("Fecha: "+doc.Receipt.ReceivedDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

func orderRow(doc *purchasing.ReceiptDocument) core.Row {
	supplier, location := "-", "-"
	if doc.Supplier != nil {
		supplier = doc.Supplier.Name
	}
	if doc.Location != nil {
		location = fmt.Sprintf("%s (%s)", doc.Location.Name, doc.Location.Code)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PROVEEDOR / DESTINO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(supplier, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Ubicación: %s   |   Estado de la orden: %s", location, doc.Order.Status),
				props.Text{Size: 8, Top: 12, Color: colorGray}),
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
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Pedido", 2, align.Right),
		h("Recibido", 2, align.Right),
		h("Pendiente", 2, align.Right),
	)
}

// tableRows una fila por ítem recibido; la sobre-recepción se resalta.
func tableRows(doc *purchasing.ReceiptDocument) []core.Row {
	result := make([]core.Row, 0, len(doc.Receipt.Items))
	for _, ri := range doc.Receipt.Items {
		sku, name := ri.ProductID, ""
		if p := doc.Products[ri.ProductID]; p != nil {
			sku, name = p.SKU, p.Name
		}
		var ordered, pending int64
		if it := doc.Order.Item(ri.PurchaseOrderItemID); it != nil {
			ordered, pending = it.Quantity, it.PendingQuantity()
		}
		received := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if ri.OverReceived {
			received.Color = colorAlert
			received.Style = fontstyle.Bold
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(sku, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(nonEmpty(name, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(ordered, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(ri.QuantityReceived, 10), received)),
			col.New(2).Add(text.New(strconv.FormatInt(pending, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func footerRow(doc *purchasing.ReceiptDocument) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(doc.Receipt.Number, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Observaciones", props.Text{Style: fontstyle.Bold, Size: 8, Top: 2, Left: 3, Color: colorPrimary}),
			text.New(nonEmpty(doc.Receipt.Notes, "Sin observaciones."), props.Text{Size: 8, Top: 8, Left: 3, Color: colorGray}),
			text.New("Recibido por: "+nonEmpty(doc.Receipt.ReceivedBy, "-"), props.Text{Size: 8, Top: 28, Left: 3}),
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
