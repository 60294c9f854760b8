package entity

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is a stored invoice record. The extraction engine produces the six
// document fields; the caller attaches the identifier and file metadata
// before persisting.
type Invoice struct {
	ID               uuid.UUID `json:"id"`
	InvoiceDate      string    `json:"invoiceDate"` // ISO date or ""
	SupplierName     string    `json:"supplierName"`
	RIF              string    `json:"rif"` // canonical L-DDDDDDDD-D or ""
	InvoiceNumber    string    `json:"invoiceNumber"`
	ItemsDescription string    `json:"itemsDescription"`
	TotalAmount      float64   `json:"totalAmount"`
	FileName         string    `json:"fileName"`
	FileType         string    `json:"fileType"`
	CreatedAt        time.Time `json:"createdAt"`
}
