package purchasing

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// ReceiptDocument datos necesarios para imprimir una nota de recepción.
type ReceiptDocument struct {
	Order    *entity.PurchaseOrder
	Receipt  *entity.GoodsReceipt
	Supplier *entity.Supplier
	Location *entity.Location
	Products map[string]*entity.Product
}

// ReceiptPDFGenerator puerto para generar el PDF de la nota de recepción (implementado en infrastructure/pdf).
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, doc *ReceiptDocument) ([]byte, error)
}

// ReceiptDocumentUseCase arma y genera la nota de recepción de una orden.
type ReceiptDocumentUseCase struct {
	orders *PurchaseOrderUseCase
	repos  repository.UnitOfWork
	gen    ReceiptPDFGenerator
	audit  audit.Recorder
}

// NewReceiptDocumentUseCase construye el caso de uso.
func NewReceiptDocumentUseCase(orders *PurchaseOrderUseCase, repos repository.UnitOfWork, gen ReceiptPDFGenerator, auditor audit.Recorder) *ReceiptDocumentUseCase {
	return &ReceiptDocumentUseCase{orders: orders, repos: repos, gen: gen, audit: auditor}
}

// GeneratePDF devuelve los bytes del PDF y el número de la recepción.
func (uc *ReceiptDocumentUseCase) GeneratePDF(ctx context.Context, actor entity.Actor, poID, receiptID string) ([]byte, string, error) {
	po, receipt, err := uc.orders.Receipt(ctx, actor, poID, receiptID)
	if err != nil {
		return nil, "", err
	}
	doc, err := uc.build(ctx, po, receipt)
	if err != nil {
		return nil, "", err
	}
	out, err := uc.gen.GenerateReceiptPDF(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("nota de recepción %s: %w", receipt.Number, err)
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditExport,
		ModelName:   "GoodsReceipt",
		ObjectID:    receipt.ID,
		ObjectRepr:  receipt.Number,
		Description: fmt.Sprintf("Nota de recepción %s exportada en PDF", receipt.Number),
	})
	return out, receipt.Number, nil
}

func (uc *ReceiptDocumentUseCase) build(ctx context.Context, po *entity.PurchaseOrder, receipt *entity.GoodsReceipt) (*ReceiptDocument, error) {
	supplier, err := uc.repos.Suppliers().GetByID(ctx, po.SupplierID)
	if err != nil {
		return nil, err
	}
	location, err := uc.repos.Locations().GetByID(ctx, po.LocationID)
	if err != nil {
		return nil, err
	}
	products := make(map[string]*entity.Product, len(receipt.Items))
	for _, it := range receipt.Items {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		p, err := uc.repos.Products().GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NotFoundf("producto %s", it.ProductID)
		}
		products[it.ProductID] = p
	}
	return &ReceiptDocument{Order: po, Receipt: receipt, Supplier: supplier, Location: location, Products: products}, nil
}
