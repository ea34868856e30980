package credits

import (
	"context"
	"testing"

	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &Transaction{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, plan string, credits int) *users.User {
	t.Helper()

	u := &users.User{
		Email:      "test@example.com",
		Plan:       plan,
		PlanStatus: plans.StatusActive,
		Credits:    credits,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func balance(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()

	var u users.User
	require.NoError(t, db.First(&u, userID).Error)
	return u.Credits
}

// Σ(ledger amounts) must equal balance − initial allocation, always.
func requireReconciled(t *testing.T, db *gorm.DB, userID uint, initial int) {
	t.Helper()

	var sum int
	require.NoError(t, db.Model(&Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error)
	require.Equal(t, balance(t, db, userID)-initial, sum)
}

func TestDeduct_Success(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 25)
	s := New(db)

	res, err := s.Deduct(context.Background(), DeductParams{
		UserID: u.ID,
		Amount: 10,
		Reason: "logo_generation",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 15, res.NewBalance)
	require.Equal(t, 15, balance(t, db, u.ID))

	var tx Transaction
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&tx).Error)
	require.Equal(t, TxDeduction, tx.Type)
	require.Equal(t, -10, tx.Amount)
	require.Equal(t, 15, tx.BalanceAfter)
	require.Equal(t, "logo_generation", tx.Reason)

	requireReconciled(t, db, u.ID, 25)
}

func TestDeduct_InsufficientBalance(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 5)
	s := New(db)

	res, err := s.Deduct(context.Background(), DeductParams{
		UserID: u.ID,
		Amount: 10,
		Reason: "logo_generation",
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 10, res.Required)
	require.Equal(t, 5, res.Available)

	// Nothing written, nothing changed.
	require.Equal(t, 5, balance(t, db, u.ID))
	var count int64
	db.Model(&Transaction{}).Where("user_id = ?", u.ID).Count(&count)
	require.Zero(t, count)
}

func TestDeduct_ExactBalance(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 10)
	s := New(db)

	res, err := s.Deduct(context.Background(), DeductParams{UserID: u.ID, Amount: 10, Reason: "logo_generation"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 0, res.NewBalance)
}

func TestDeduct_UnknownAccount(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	s := New(db)

	_, err := s.Deduct(context.Background(), DeductParams{UserID: 999, Amount: 10, Reason: "logo_generation"})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeduct_InvalidAmount(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 25)
	s := New(db)

	_, err := s.Deduct(context.Background(), DeductParams{UserID: u.ID, Amount: 0, Reason: "x"})
	require.Error(t, err)
	_, err = s.Deduct(context.Background(), DeductParams{UserID: u.ID, Amount: -5, Reason: "x"})
	require.Error(t, err)
}

func TestRefund_RestoresBalance(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 25)
	s := New(db)
	ctx := context.Background()

	assetID := "asset-1"
	_, err := s.Deduct(ctx, DeductParams{UserID: u.ID, Amount: 10, Reason: "logo_generation", AssetID: &assetID})
	require.NoError(t, err)

	newBalance, err := s.Refund(ctx, RefundParams{UserID: u.ID, Amount: 10, Reason: "generation_failed", AssetID: &assetID})
	require.NoError(t, err)
	require.Equal(t, 25, newBalance)
	require.Equal(t, 25, balance(t, db, u.ID))

	// Both the deduction and the refund remain on the ledger.
	var txs []Transaction
	require.NoError(t, db.Where("user_id = ?", u.ID).Order("id").Find(&txs).Error)
	require.Len(t, txs, 2)
	require.Equal(t, TxDeduction, txs[0].Type)
	require.Equal(t, TxRefund, txs[1].Type)
	require.Equal(t, 10, txs[1].Amount)
	require.Equal(t, &assetID, txs[1].AssetID)

	requireReconciled(t, db, u.ID, 25)
}

func TestAdd_DefaultsToAddition(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 0)
	s := New(db)

	newBalance, err := s.Add(context.Background(), AddParams{UserID: u.ID, Amount: 100, Reason: "admin_grant"})
	require.NoError(t, err)
	require.Equal(t, 100, newBalance)

	var tx Transaction
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&tx).Error)
	require.Equal(t, TxAddition, tx.Type)
}

func TestAdd_UnknownAccount(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	s := New(db)

	_, err := s.Add(context.Background(), AddParams{UserID: 999, Amount: 10, Reason: "x"})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMonthlyReset_ReplacesRemainder(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanPro, 200)
	s := New(db)
	ctx := context.Background()

	// Spend some, then reset: the remainder is replaced, not added to.
	_, err := s.Deduct(ctx, DeductParams{UserID: u.ID, Amount: 130, Reason: "logo_generation"})
	require.NoError(t, err)
	require.Equal(t, 70, balance(t, db, u.ID))

	require.NoError(t, s.MonthlyReset(ctx, u.ID))
	require.Equal(t, 200, balance(t, db, u.ID))

	// The reset entry records the signed delta, keeping the sum invariant.
	var tx Transaction
	require.NoError(t, db.Where("user_id = ? AND reason = ?", u.ID, "monthly_reset").First(&tx).Error)
	require.Equal(t, TxAddition, tx.Type)
	require.Equal(t, 130, tx.Amount)
	require.Equal(t, 200, tx.BalanceAfter)

	requireReconciled(t, db, u.ID, 200)
}

func TestMonthlyReset_BalanceAboveAllocation(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	// Pack purchases can push the balance above the monthly allocation;
	// a reset still replaces it, with a negative delta on the ledger.
	u := seedUser(t, db, plans.PlanPro, 350)
	s := New(db)

	require.NoError(t, s.MonthlyReset(context.Background(), u.ID))
	require.Equal(t, 200, balance(t, db, u.ID))

	var tx Transaction
	require.NoError(t, db.Where("user_id = ? AND reason = ?", u.ID, "monthly_reset").First(&tx).Error)
	require.Equal(t, -150, tx.Amount)
}

func TestHasCredits(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanFree, 10)
	s := New(db)
	ctx := context.Background()

	ok, err := s.HasCredits(ctx, u.ID, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasCredits(ctx, u.ID, 11)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.HasCredits(ctx, 999, 1)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUsageStats_GroupsByReason(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanPro, 200)
	s := New(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Deduct(ctx, DeductParams{UserID: u.ID, Amount: 10, Reason: "logo_generation"})
		require.NoError(t, err)
	}
	_, err := s.Deduct(ctx, DeductParams{UserID: u.ID, Amount: 5, Reason: "palette_generation"})
	require.NoError(t, err)

	// Refunds and additions must not show up in usage.
	_, err = s.Refund(ctx, RefundParams{UserID: u.ID, Amount: 10, Reason: "generation_failed"})
	require.NoError(t, err)

	stats, err := s.UsageStats(ctx, u.ID, 30)
	require.NoError(t, err)
	require.Equal(t, 35, stats.TotalUsed)
	require.Equal(t, 30, stats.ByFeature["logo_generation"])
	require.Equal(t, 5, stats.ByFeature["palette_generation"])
}

func TestHistory_ReturnsEntries(t *testing.T) {
	plans.Load()
	db := openTestDB(t)
	u := seedUser(t, db, plans.PlanPro, 200)
	s := New(db)
	ctx := context.Background()

	_, err := s.Deduct(ctx, DeductParams{UserID: u.ID, Amount: 10, Reason: "logo_generation"})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddParams{UserID: u.ID, Amount: 100, Reason: "credit_pack_purchase", Type: TxPurchase})
	require.NoError(t, err)

	txs, err := s.History(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
}
