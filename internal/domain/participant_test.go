package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParticipant_Cash(t *testing.T) {
	t.Run("Debit Within Balance", func(t *testing.T) {
		p := NewParticipant("MasterAccount", decimal.NewFromInt(10000))
		if err := p.Debit(decimal.NewFromInt(8000)); err != nil {
			t.Fatalf("Debit failed: %v", err)
		}
		if !p.Cash.Equal(decimal.NewFromInt(2000)) {
			t.Errorf("Expected cash 2000, got %v", p.Cash)
		}
	})

	t.Run("Debit Beyond Balance Fails Without Mutation", func(t *testing.T) {
		p := NewParticipant("Silhouette", decimal.NewFromInt(100))
		if err := p.Debit(decimal.NewFromInt(8000)); err == nil {
			t.Fatal("Debit should fail when balance is insufficient")
		}
		if !p.Cash.Equal(decimal.NewFromInt(100)) {
			t.Errorf("Balance must be unchanged after failed debit, got %v", p.Cash)
		}
	})

	t.Run("Credit", func(t *testing.T) {
		p := NewParticipant("Silhouette", decimal.NewFromInt(100))
		p.Credit(decimal.NewFromInt(50))
		if !p.Cash.Equal(decimal.NewFromInt(150)) {
			t.Errorf("Expected cash 150, got %v", p.Cash)
		}
	})
}

func TestParticipant_Holdings(t *testing.T) {
	t.Run("Missing Entry Is Zero", func(t *testing.T) {
		p := NewParticipant("MasterAccount", decimal.Zero)
		if p.Holding("RELIANCE") != 0 {
			t.Error("Missing holding should read as zero")
		}
	})

	t.Run("Add And Remove", func(t *testing.T) {
		p := NewParticipant("MasterAccount", decimal.Zero)
		p.AddShares("RELIANCE", 20)
		if err := p.RemoveShares("RELIANCE", 10); err != nil {
			t.Fatalf("RemoveShares failed: %v", err)
		}
		if p.Holding("RELIANCE") != 10 {
			t.Errorf("Expected 10 shares, got %d", p.Holding("RELIANCE"))
		}
	})

	t.Run("Remove Beyond Holding Fails Without Mutation", func(t *testing.T) {
		p := NewParticipant("Silhouette", decimal.Zero)
		p.AddShares("IRFC", 5)
		if err := p.RemoveShares("IRFC", 6); err == nil {
			t.Fatal("RemoveShares should fail when holding is insufficient")
		}
		if p.Holding("IRFC") != 5 {
			t.Errorf("Holding must be unchanged after failed removal, got %d", p.Holding("IRFC"))
		}
	})

	t.Run("Nil Map Initialized On Add", func(t *testing.T) {
		p := &Participant{Name: "Fresh", Cash: decimal.Zero}
		p.AddShares("VI", 100)
		if p.Holding("VI") != 100 {
			t.Errorf("Expected 100 shares, got %d", p.Holding("VI"))
		}
	})
}
