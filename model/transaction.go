package model

import "time"

// TransactionStatus is the lifecycle state of a license transaction.
// pending -> completed | failed; refunded is reserved for a future refund path.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// Transaction is a purchase record. The fee split is computed once at creation
// and never recomputed: Amount == PlatformFee + SellerAmount at two decimals.
// LicensingType is snapshotted so later vocal edits cannot change history.
type Transaction struct {
	ID            int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	VocalID       int64             `json:"vocalId" gorm:"index;not null"`
	BuyerID       int64             `json:"buyerId" gorm:"index;not null"`
	SellerID      int64             `json:"sellerId" gorm:"index;not null"`
	Amount        float64           `json:"amount" gorm:"type:decimal(10,2);not null"`
	PlatformFee   float64           `json:"platformFee" gorm:"type:decimal(10,2);not null"`
	SellerAmount  float64           `json:"sellerAmount" gorm:"type:decimal(10,2);not null"`
	GatewayRef    string            `json:"gatewayRef" gorm:"uniqueIndex;size:191;not null"`
	LicensingType LicensingType     `json:"licensingType" gorm:"size:32;not null"`
	Status        TransactionStatus `json:"status" gorm:"size:16;index;not null;default:pending"`
	FailureReason string            `json:"failureReason,omitempty" gorm:"size:255"`
	RefundRef     string            `json:"refundRef,omitempty" gorm:"size:191"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// TableName fixes the table name for GORM.
func (Transaction) TableName() string { return "transactions" }

// Round2 rounds to two decimal places, matching how every stored money value
// is computed.
func Round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
