package repository

import (
	"errors"
	"fmt"

	"Musga/model"

	"gorm.io/gorm"
)

// EarningsSummary aggregates a seller's completed sales.
type EarningsSummary struct {
	TotalEarnings float64 `json:"totalEarnings"`
	TotalSales    int64   `json:"totalSales"`
}

// TransactionRepository defines the interface for transaction bookkeeping.
// Built on GORM; the ledger is the newer module and does not share the raw
// database/sql plumbing of the user/vocal repositories.
type TransactionRepository interface {
	Create(tx *model.Transaction) error
	GetByGatewayRef(ref string) (*model.Transaction, error)
	Save(tx *model.Transaction) error
	ListPurchases(buyerID int64, page model.Page) ([]*model.Transaction, int64, error)
	ListSales(sellerID int64, vocalID int64, page model.Page) ([]*model.Transaction, int64, error)
	Earnings(sellerID int64) (*EarningsSummary, error)
	CompletedFor(vocalID, buyerID int64) (*model.Transaction, error)
}

// gormTransactionRepository implements TransactionRepository.
type gormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new gormTransactionRepository.
func NewGormTransactionRepository(db *gorm.DB) TransactionRepository {
	return &gormTransactionRepository{db: db}
}

// Create persists a new transaction.
func (r *gormTransactionRepository) Create(tx *model.Transaction) error {
	if err := r.db.Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByGatewayRef looks a transaction up by its gateway reference.
func (r *gormTransactionRepository) GetByGatewayRef(ref string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.Where("gateway_ref = ?", ref).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Transaction not found
		}
		return nil, fmt.Errorf("failed to query transaction by gateway ref %s: %w", ref, err)
	}
	return &tx, nil
}

// Save persists updates to a transaction.
func (r *gormTransactionRepository) Save(tx *model.Transaction) error {
	if err := r.db.Save(tx).Error; err != nil {
		return fmt.Errorf("failed to save transaction %d: %w", tx.ID, err)
	}
	return nil
}

// ListPurchases returns a buyer's completed purchases, newest first.
func (r *gormTransactionRepository) ListPurchases(buyerID int64, page model.Page) ([]*model.Transaction, int64, error) {
	q := r.db.Model(&model.Transaction{}).
		Where("buyer_id = ? AND status = ?", buyerID, model.TransactionCompleted)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases for buyer %d: %w", buyerID, err)
	}

	var txs []*model.Transaction
	err := q.Order("created_at DESC").Limit(page.Size).Offset(page.Offset()).Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases for buyer %d: %w", buyerID, err)
	}
	return txs, total, nil
}

// ListSales returns a seller's completed sales, newest first, optionally
// restricted to one vocal (vocalID <= 0 means no filter).
func (r *gormTransactionRepository) ListSales(sellerID int64, vocalID int64, page model.Page) ([]*model.Transaction, int64, error) {
	q := r.db.Model(&model.Transaction{}).
		Where("seller_id = ? AND status = ?", sellerID, model.TransactionCompleted)
	if vocalID > 0 {
		q = q.Where("vocal_id = ?", vocalID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales for seller %d: %w", sellerID, err)
	}

	var txs []*model.Transaction
	err := q.Order("created_at DESC").Limit(page.Size).Offset(page.Offset()).Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales for seller %d: %w", sellerID, err)
	}
	return txs, total, nil
}

// Earnings sums seller_amount over completed sales.
func (r *gormTransactionRepository) Earnings(sellerID int64) (*EarningsSummary, error) {
	var summary EarningsSummary
	err := r.db.Model(&model.Transaction{}).
		Select("COALESCE(SUM(seller_amount), 0) AS total_earnings, COUNT(id) AS total_sales").
		Where("seller_id = ? AND status = ?", sellerID, model.TransactionCompleted).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute earnings for seller %d: %w", sellerID, err)
	}
	return &summary, nil
}

// CompletedFor returns the completed transaction for a (vocal, buyer) pair, if any.
func (r *gormTransactionRepository) CompletedFor(vocalID, buyerID int64) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.Where("vocal_id = ? AND buyer_id = ? AND status = ?",
		vocalID, buyerID, model.TransactionCompleted).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query completed transaction for vocal %d buyer %d: %w", vocalID, buyerID, err)
	}
	return &tx, nil
}
