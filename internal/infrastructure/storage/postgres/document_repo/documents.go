package document_repo

import (
	"pharmacy/internal/domain/documents/consumption"
	"pharmacy/internal/domain/documents/goods_receipt"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/documents/purchase"
	"pharmacy/internal/domain/documents/transfer"
	"pharmacy/internal/infrastructure/storage/postgres"
)

var (
	purchaseRequestTable = Table{
		Header: "doc_purchase_requests", Lines: "doc_purchase_request_lines",
		LocationColumn: "location_id",
	}
	purchaseOrderTable = Table{
		Header: "doc_purchase_orders", Lines: "doc_purchase_order_lines",
		CounterpartyColumn: "vendor_id", LocationColumn: "location_id",
	}
	goodsReceiptTable = Table{
		Header: "doc_goods_receipts", Lines: "doc_goods_receipt_lines",
		CounterpartyColumn: "vendor_id", LocationColumn: "location_id",
		SearchColumns: []string{"supplier_invoice_no"},
	}
	invoiceTable = Table{
		Header: "doc_invoices", Lines: "doc_invoice_lines",
		CounterpartyColumn: "customer_id", LocationColumn: "location_id",
		SearchColumns: []string{"customer_name"},
	}
	returnTable = Table{
		Header: "doc_returns", Lines: "doc_return_lines",
		CounterpartyColumn: "vendor_id", LocationColumn: "location_id",
		HasKind: true,
	}
	transferTable = Table{
		Header: "doc_external_transfers", Lines: "doc_external_transfer_lines",
		LocationColumn: "from_location_id",
		SearchColumns:  []string{"destination"},
	}
	consumptionTable = Table{
		Header: "doc_consumption_issues", Lines: "doc_consumption_issue_lines",
		CounterpartyColumn: "department_id", LocationColumn: "location_id",
		SearchColumns: []string{"issued_to"},
	}
)

func NewPurchaseRequestRepo(txm *postgres.TxManager) *DocumentRepo[*purchase.Request] {
	return NewDocumentRepo(txm, purchaseRequestTable,
		postgres.ExtractDBColumns[purchase.Request](), func() *purchase.Request { return &purchase.Request{} })
}

func NewPurchaseOrderRepo(txm *postgres.TxManager) *DocumentRepo[*purchase.Order] {
	return NewDocumentRepo(txm, purchaseOrderTable,
		postgres.ExtractDBColumns[purchase.Order](), func() *purchase.Order { return &purchase.Order{} })
}

func NewGoodsReceiptRepo(txm *postgres.TxManager) *DocumentRepo[*goods_receipt.GoodsReceipt] {
	return NewDocumentRepo(txm, goodsReceiptTable,
		postgres.ExtractDBColumns[goods_receipt.GoodsReceipt](), func() *goods_receipt.GoodsReceipt { return &goods_receipt.GoodsReceipt{} })
}

func NewInvoiceRepo(txm *postgres.TxManager) *DocumentRepo[*invoice.Invoice] {
	return NewDocumentRepo(txm, invoiceTable,
		postgres.ExtractDBColumns[invoice.Invoice](), func() *invoice.Invoice { return &invoice.Invoice{} })
}

func NewTransferRepo(txm *postgres.TxManager) *DocumentRepo[*transfer.Transfer] {
	return NewDocumentRepo(txm, transferTable,
		postgres.ExtractDBColumns[transfer.Transfer](), func() *transfer.Transfer { return &transfer.Transfer{} })
}

func NewConsumptionRepo(txm *postgres.TxManager) *DocumentRepo[*consumption.Issue] {
	return NewDocumentRepo(txm, consumptionTable,
		postgres.ExtractDBColumns[consumption.Issue](), func() *consumption.Issue { return &consumption.Issue{} })
}

var (
	_ purchase.RequestRepository = (*DocumentRepo[*purchase.Request])(nil)
	_ purchase.OrderRepository   = (*DocumentRepo[*purchase.Order])(nil)
	_ goods_receipt.Repository   = (*DocumentRepo[*goods_receipt.GoodsReceipt])(nil)
	_ invoice.Repository         = (*DocumentRepo[*invoice.Invoice])(nil)
	_ transfer.Repository        = (*DocumentRepo[*transfer.Transfer])(nil)
	_ consumption.Repository     = (*DocumentRepo[*consumption.Issue])(nil)
)
