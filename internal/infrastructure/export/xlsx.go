// Package export genera reportes descargables del historial de transacciones.
package export

import (
	"fmt"
	"io"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transacciones"

var headers = []any{
	"Secuencia", "Fecha", "Tipo", "Dirección", "Producto", "Ubicación",
	"Cantidad", "Antes", "Después", "Precio unitario", "Referencia", "Usuario", "Notas",
}

var _ inventory.TransactionExporter = (*XLSXExporter)(nil)

// XLSXExporter escribe el historial como hoja de cálculo.
type XLSXExporter struct{}

// NewXLSXExporter construye el exportador.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) FileExtension() string { return "xlsx" }

// WriteTransactions escribe una fila por transacción en el orden recibido.
func (e *XLSXExporter) WriteTransactions(w io.Writer, txs []*entity.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetName, "A", "M", 16)

	for i, tx := range txs {
		price := ""
		if tx.UnitPrice != nil {
			price = tx.UnitPrice.StringFixed(2)
		}
		row := []any{
			tx.Sequence,
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			string(tx.Type),
			string(tx.Direction),
			tx.ProductID,
			tx.LocationID,
			tx.Quantity,
			tx.QuantityBefore,
			tx.QuantityAfter,
			price,
			tx.Reference,
			tx.CreatedBy,
			tx.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("fila %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}
