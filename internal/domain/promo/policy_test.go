package promo

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/plug/fuel-api/internal/domain/fuel"
)

func intPtr(v int) *int { return &v }

func TestNormalizeCode(t *testing.T) {
	code, err := NormalizeCode("  spring50 ")
	if err != nil || code != "SPRING50" {
		t.Fatalf("expected SPRING50, got %q err=%v", code, err)
	}

	for _, raw := range []string{"", "   ", strings.Repeat("A", MaxCodeLength+1)} {
		if _, err := NormalizeCode(raw); !errors.Is(err, ErrInvalidCodeFormat) {
			t.Fatalf("%q: expected ErrInvalidCodeFormat, got %v", raw, err)
		}
	}

	if _, err := NormalizeCode(strings.Repeat("A", MaxCodeLength)); err != nil {
		t.Fatalf("code at max length should be accepted: %v", err)
	}
}

func TestCheckOrder(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		promo    *PromoCode
		redeemed bool
		want     error
	}{
		{"missing", nil, false, ErrInvalidPromoCode},
		{"inactive beats expired", &PromoCode{IsActive: false, ExpiresAt: &past}, false, ErrInvalidPromoCode},
		{"expired beats exhausted", &PromoCode{IsActive: true, ExpiresAt: &past, MaxUses: intPtr(1), UsesCount: 1}, false, ErrCodeExpired},
		{"expires exactly now", &PromoCode{IsActive: true, ExpiresAt: &now}, false, ErrCodeExpired},
		{"exhausted beats redeemed", &PromoCode{IsActive: true, MaxUses: intPtr(2), UsesCount: 2}, true, ErrCodeExhausted},
		{"already redeemed", &PromoCode{IsActive: true, ExpiresAt: &future}, true, ErrAlreadyRedeemed},
		{"valid unlimited uses", &PromoCode{IsActive: true, UsesCount: 1000}, false, nil},
		{"valid under max", &PromoCode{IsActive: true, MaxUses: intPtr(2), UsesCount: 1}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.promo, tt.redeemed, now)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyBonus(t *testing.T) {
	c := &fuel.UserCredits{DailyFuel: 7, PermanentFuel: 3}
	awarded, entries, err := Apply(&PromoCode{Type: TypeBonus, Amount: 50}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awarded != 50 || c.PermanentFuel != 53 || c.DailyFuel != 7 {
		t.Fatalf("unexpected effect: awarded=%d credits=%+v", awarded, c)
	}
	if len(entries) != 1 || entries[0].Amount != 50 || entries[0].CreditType != fuel.CreditTypePermanent || entries[0].ActionType != ActionPromoCode {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestApplyUnlimited(t *testing.T) {
	c := &fuel.UserCredits{DailyFuel: 2, PermanentFuel: 40}
	awarded, entries, err := Apply(&PromoCode{Type: TypeUnlimited}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awarded != UnlimitedFuel || c.DailyFuel != UnlimitedFuel || c.PermanentFuel != UnlimitedFuel {
		t.Fatalf("unexpected effect: awarded=%d credits=%+v", awarded, c)
	}
	if len(entries) != 1 || entries[0].Amount != UnlimitedFuel {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestApplyRejectsBrokenDefinitions(t *testing.T) {
	c := &fuel.UserCredits{}
	if _, _, err := Apply(&PromoCode{Type: TypeBonus, Amount: 0}, c); !errors.Is(err, ErrInvalidPromo) {
		t.Fatalf("expected ErrInvalidPromo, got %v", err)
	}
	if _, _, err := Apply(&PromoCode{Type: "mystery"}, c); !errors.Is(err, ErrInvalidPromo) {
		t.Fatalf("expected ErrInvalidPromo, got %v", err)
	}
	if c.PermanentFuel != 0 {
		t.Fatalf("balance changed on rejected apply: %+v", c)
	}
}
