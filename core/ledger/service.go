// Package ledger owns purchase bookkeeping: fee computation, gateway
// interaction and the transaction state machine.
package ledger

import (
	"context"

	"Musga/core/payment"
	"Musga/errs"
	"Musga/logger"
	"Musga/model"
	"Musga/repository"
)

// Locker serializes purchase initiation per vocal; satisfied by the redis
// purchase locker.
type Locker interface {
	Acquire(ctx context.Context, vocalID int64) (release func(), err error)
}

// Service implements ledger operations.
type Service struct {
	txs     repository.TransactionRepository
	vocals  repository.VocalRepository
	users   repository.UserRepository
	gateway payment.Gateway
	locker  Locker
	feeRate float64
}

// NewService creates a ledger service. feeRate is the platform's cut of every
// sale, e.g. 0.10.
func NewService(
	txs repository.TransactionRepository,
	vocals repository.VocalRepository,
	users repository.UserRepository,
	gateway payment.Gateway,
	locker Locker,
	feeRate float64,
) *Service {
	return &Service{
		txs:     txs,
		vocals:  vocals,
		users:   users,
		gateway: gateway,
		locker:  locker,
		feeRate: feeRate,
	}
}

// PurchaseIntent is returned to the buyer; no funds have moved yet.
type PurchaseIntent struct {
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
}

// checkAvailability applies the purchase preconditions to a loaded vocal.
func checkAvailability(vocal *model.Vocal, buyerID int64) error {
	if vocal == nil || !vocal.IsActive {
		return errs.E(errs.NotFound, "vocal not found")
	}
	// An upload still in the pipeline (or one whose processing failed) is
	// visible via getById but not purchasable.
	if vocal.Status != model.VocalCompleted {
		return errs.E(errs.InvalidState, "vocal is not ready for purchase")
	}
	if vocal.IsSold && vocal.LicensingType == model.LicensingExclusive {
		return errs.E(errs.Conflict, "this vocal has already been sold exclusively")
	}
	if vocal.SingerID == buyerID {
		return errs.E(errs.InvalidArgument, "you cannot purchase your own vocal")
	}
	return nil
}

// InitiatePurchase creates a payment intent and a pending transaction for the
// vocal. For exclusive vocals the availability check and the pending insert
// run under a per-vocal lock so two buyers cannot interleave; the
// compare-and-swap at confirm time remains the authoritative guard.
func (s *Service) InitiatePurchase(ctx context.Context, vocalID, buyerID int64) (*PurchaseIntent, error) {
	vocal, err := s.vocals.GetVocalByID(vocalID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load vocal", err)
	}
	if err := checkAvailability(vocal, buyerID); err != nil {
		return nil, err
	}

	if vocal.LicensingType == model.LicensingExclusive {
		release, err := s.locker.Acquire(ctx, vocalID)
		if err != nil {
			return nil, errs.Wrap(errs.Conflict, "another purchase of this vocal is in progress", err)
		}
		defer release()

		// Re-validate inside the locked section.
		vocal, err = s.vocals.GetVocalByID(vocalID)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "failed to reload vocal", err)
		}
		if err := checkAvailability(vocal, buyerID); err != nil {
			return nil, err
		}
	}

	buyer, err := s.users.GetUserByID(buyerID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load buyer", err)
	}
	if buyer == nil {
		return nil, errs.E(errs.NotFound, "buyer not found")
	}

	amount := model.Round2(vocal.Price)
	fee := model.Round2(amount * s.feeRate)
	sellerAmount := model.Round2(amount - fee)

	intent, err := s.gateway.CreateIntent(ctx, amount)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "payment gateway rejected the intent", err)
	}

	tx := &model.Transaction{
		VocalID:       vocalID,
		BuyerID:       buyerID,
		SellerID:      vocal.SingerID,
		Amount:        amount,
		PlatformFee:   fee,
		SellerAmount:  sellerAmount,
		GatewayRef:    intent.Ref,
		LicensingType: vocal.LicensingType, // snapshot; later edits must not rewrite history
		Status:        model.TransactionPending,
	}
	if err := s.txs.Create(tx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to record transaction", err)
	}

	logger.Info("purchase initiated",
		logger.Int64("vocalId", vocalID),
		logger.Int64("buyerId", buyerID),
		logger.String("gatewayRef", intent.Ref),
		logger.Float64("amount", amount))

	return &PurchaseIntent{ClientSecret: intent.ClientSecret, Amount: amount}, nil
}

// ConfirmPurchase settles a pending transaction against the gateway outcome.
// Exclusive sales go through a conditional update on the vocal row; the loser
// of a race ends failed, never completed.
func (s *Service) ConfirmPurchase(ctx context.Context, gatewayRef string) (*model.Transaction, error) {
	tx, err := s.txs.GetByGatewayRef(gatewayRef)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load transaction", err)
	}
	if tx == nil {
		return nil, errs.E(errs.NotFound, "transaction not found")
	}
	if tx.Status != model.TransactionPending {
		return nil, errs.E(errs.InvalidState, "transaction is not pending")
	}

	outcome, err := s.gateway.GetOutcome(ctx, gatewayRef)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to query payment gateway", err)
	}

	switch outcome {
	case payment.OutcomeSucceeded:
		if tx.LicensingType == model.LicensingExclusive {
			sold, err := s.vocals.MarkSoldExclusive(tx.VocalID)
			if err != nil {
				return nil, errs.Wrap(errs.Internal, "failed to mark vocal sold", err)
			}
			if !sold {
				tx.Status = model.TransactionFailed
				tx.FailureReason = "exclusive license no longer available"
				break
			}
		}
		tx.Status = model.TransactionCompleted
		if err := s.vocals.IncrementDownloadCount(tx.VocalID); err != nil {
			logger.Warn("failed to increment download count",
				logger.Int64("vocalId", tx.VocalID),
				logger.ErrorField(err))
		}
	case payment.OutcomePending:
		return nil, errs.E(errs.InvalidState, "payment has not finished processing")
	default:
		tx.Status = model.TransactionFailed
		tx.FailureReason = "payment declined by gateway"
	}

	if err := s.txs.Save(tx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to save transaction", err)
	}

	logger.Info("purchase confirmed",
		logger.String("gatewayRef", gatewayRef),
		logger.String("status", string(tx.Status)))

	return tx, nil
}

// ListPurchases returns the buyer's completed purchases, newest first.
func (s *Service) ListPurchases(buyerID int64, page model.Page) (model.Paginated[*model.Transaction], error) {
	txs, total, err := s.txs.ListPurchases(buyerID, page)
	if err != nil {
		return model.Paginated[*model.Transaction]{}, errs.Wrap(errs.Internal, "failed to list purchases", err)
	}
	return model.NewPaginated(txs, total, page), nil
}

// ListSales returns the seller's completed sales, newest first, optionally
// filtered to one vocal.
func (s *Service) ListSales(sellerID, vocalID int64, page model.Page) (model.Paginated[*model.Transaction], error) {
	txs, total, err := s.txs.ListSales(sellerID, vocalID, page)
	if err != nil {
		return model.Paginated[*model.Transaction]{}, errs.Wrap(errs.Internal, "failed to list sales", err)
	}
	return model.NewPaginated(txs, total, page), nil
}

// Earnings summarizes the seller's completed sales.
func (s *Service) Earnings(sellerID int64) (*repository.EarningsSummary, error) {
	summary, err := s.txs.Earnings(sellerID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to compute earnings", err)
	}
	return summary, nil
}

// ResolveDownloadPath returns the master file path for a buyer who holds a
// completed transaction on the vocal.
func (s *Service) ResolveDownloadPath(vocalID, buyerID int64) (string, error) {
	tx, err := s.txs.CompletedFor(vocalID, buyerID)
	if err != nil {
		return "", errs.Wrap(errs.Internal, "failed to look up purchase", err)
	}
	if tx == nil {
		return "", errs.E(errs.NotFound, "purchase not found or not completed")
	}

	vocal, err := s.vocals.GetVocalByID(vocalID)
	if err != nil {
		return "", errs.Wrap(errs.Internal, "failed to load vocal", err)
	}
	if vocal == nil {
		return "", errs.E(errs.NotFound, "vocal not found")
	}
	return vocal.FilePath, nil
}
