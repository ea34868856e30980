package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"gorm.io/gorm"
)

var ErrAccountNotFound = errors.New("account not found")

// Service owns balance mutation and transaction logging. Every balance
// change and its ledger entry commit in one database transaction, and
// deductions use a conditional update so two concurrent deductions can
// never drive the balance negative.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

type DeductParams struct {
	UserID      uint
	Amount      int
	Reason      string
	Description string
	AssetID     *string
	Metadata    map[string]string
}

type DeductResult struct {
	Success    bool `json:"success"`
	NewBalance int  `json:"new_balance"`
	Required   int  `json:"required,omitempty"`
	Available  int  `json:"available,omitempty"`
}

type AddParams struct {
	UserID      uint
	Amount      int
	Type        TransactionType
	Reason      string
	Description string
}

type RefundParams struct {
	UserID  uint
	Amount  int
	Reason  string
	AssetID *string
}

type UsageStats struct {
	TotalUsed int            `json:"total_used"`
	ByFeature map[string]int `json:"by_feature"`
}

// HasCredits reports whether the account can cover amount.
func (s *Service) HasCredits(ctx context.Context, userID uint, amount int) (bool, error) {
	var user users.User
	if err := s.db.WithContext(ctx).Select("credits").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrAccountNotFound
		}
		return false, err
	}
	return user.Credits >= amount, nil
}

// Deduct removes amount from the balance and appends a DEDUCTION entry.
// Insufficient balance is an expected condition, reported as a typed
// result rather than an error; nothing is written in that case.
func (s *Service) Deduct(ctx context.Context, p DeductParams) (*DeductResult, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("invalid deduction amount: %d", p.Amount)
	}

	result := &DeductResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// All-or-nothing: the WHERE clause guarantees the balance never
		// goes negative, even under concurrent deductions.
		res := tx.Model(&users.User{}).
			Where("id = ? AND credits >= ?", p.UserID, p.Amount).
			UpdateColumn("credits", gorm.Expr("credits - ?", p.Amount))
		if res.Error != nil {
			return res.Error
		}

		var user users.User
		if err := tx.Select("credits").First(&user, p.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if res.RowsAffected == 0 {
			result.Success = false
			result.Required = p.Amount
			result.Available = user.Credits
			return nil
		}

		entry := Transaction{
			UserID:       p.UserID,
			Type:         TxDeduction,
			Amount:       -p.Amount,
			BalanceAfter: user.Credits,
			Reason:       p.Reason,
			Description:  p.Description,
			AssetID:      p.AssetID,
			Metadata:     p.Metadata,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result.Success = true
		result.NewBalance = user.Credits
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Add increments the balance and appends an entry of the given type.
func (s *Service) Add(ctx context.Context, p AddParams) (int, error) {
	if p.Amount <= 0 {
		return 0, fmt.Errorf("invalid addition amount: %d", p.Amount)
	}
	if p.Type == "" {
		p.Type = TxAddition
	}
	return s.credit(ctx, p.UserID, p.Amount, p.Type, p.Reason, p.Description, nil)
}

// Refund reverses a prior failed deduction.
func (s *Service) Refund(ctx context.Context, p RefundParams) (int, error) {
	if p.Amount <= 0 {
		return 0, fmt.Errorf("invalid refund amount: %d", p.Amount)
	}
	return s.credit(ctx, p.UserID, p.Amount, TxRefund, p.Reason, "", p.AssetID)
}

func (s *Service) credit(ctx context.Context, userID uint, amount int, txType TransactionType, reason, description string, assetID *string) (int, error) {
	newBalance := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&users.User{}).
			Where("id = ?", userID).
			UpdateColumn("credits", gorm.Expr("credits + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		var user users.User
		if err := tx.Select("credits").First(&user, userID).Error; err != nil {
			return err
		}
		newBalance = user.Credits

		entry := Transaction{
			UserID:       userID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: newBalance,
			Reason:       reason,
			Description:  description,
			AssetID:      assetID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// MonthlyReset sets the balance to the plan's monthly allocation. The
// allocation replaces whatever remained; the ledger entry records the
// signed delta so transaction sums still reconcile with the balance.
func (s *Service) MonthlyReset(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user users.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		allocation := plans.ByKey(user.Plan).MonthlyCredits
		delta := allocation - user.Credits

		if err := tx.Model(&users.User{}).
			Where("id = ?", userID).
			UpdateColumn("credits", allocation).Error; err != nil {
			return err
		}

		entry := Transaction{
			UserID:       userID,
			Type:         TxAddition,
			Amount:       delta,
			BalanceAfter: allocation,
			Reason:       "monthly_reset",
			Description:  fmt.Sprintf("Monthly reset to %d credits (%s plan)", allocation, user.Plan),
		}
		return tx.Create(&entry).Error
	})
}

// UsageStats aggregates deductions over the trailing window, grouped by
// reason code.
func (s *Service) UsageStats(ctx context.Context, userID uint, windowDays int) (*UsageStats, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	type row struct {
		Reason string
		Used   int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&Transaction{}).
		Select("reason, SUM(-amount) AS used").
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, TxDeduction, since).
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &UsageStats{ByFeature: map[string]int{}}
	for _, r := range rows {
		stats.ByFeature[r.Reason] = r.Used
		stats.TotalUsed += r.Used
	}
	return stats, nil
}

// History returns the most recent ledger entries for an account.
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var txs []Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
