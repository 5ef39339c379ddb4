package goods_receipt

import "pharmacy/internal/domain/documents"

// Repository defines storage for goods receipts.
type Repository = documents.Repository[*GoodsReceipt]
