package memory

import "github.com/jhoicas/stockledger/internal/domain/entity"

func cloneTransaction(t entity.Transaction) entity.Transaction {
	if t.UnitPrice != nil {
		p := *t.UnitPrice
		t.UnitPrice = &p
	}
	return t
}

func cloneItems(items []*entity.PurchaseOrderItem) []*entity.PurchaseOrderItem {
	out := make([]*entity.PurchaseOrderItem, len(items))
	for i, it := range items {
		c := *it
		out[i] = &c
	}
	return out
}

func cloneOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *po
	c.Items = cloneItems(po.Items)
	if po.ExpectedDelivery != nil {
		t := *po.ExpectedDelivery
		c.ExpectedDelivery = &t
	}
	if po.ActualDelivery != nil {
		t := *po.ActualDelivery
		c.ActualDelivery = &t
	}
	return &c
}

func cloneReceipt(r *entity.GoodsReceipt) *entity.GoodsReceipt {
	c := *r
	c.Items = make([]*entity.GoodsReceiptItem, len(r.Items))
	for i, it := range r.Items {
		ci := *it
		c.Items[i] = &ci
	}
	return &c
}
