package waitlist

import (
	"crypto/rand"
	"time"
)

type WaitlistUser struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex:idx_waitlist_email"`
	Name         string    `json:"name,omitempty"`
	ReferralCode string    `json:"referral_code" gorm:"not null;uniqueIndex:idx_waitlist_referral_code"`
	ReferredByID *uint     `json:"referred_by_id,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
}

// referralAlphabet avoids ambiguous characters (0/O, 1/I).
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func NewReferralCode() string {
	b := make([]byte, 8)
	rand.Read(b)
	for i := range b {
		b[i] = referralAlphabet[int(b[i])%len(referralAlphabet)]
	}
	return string(b)
}
