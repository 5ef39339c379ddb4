package invoice

import "pharmacy/internal/domain/documents"

// Repository defines storage for invoices.
type Repository = documents.Repository[*Invoice]
