package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCompany_VWAP(t *testing.T) {
	t.Run("Quantity Weighted Mean", func(t *testing.T) {
		c := NewCompany("RELIANCE", decimal.NewFromInt(1500), decimal.NewFromFloat(0.20))
		c.RecordTrade(decimal.NewFromInt(100), 10)
		c.RecordTrade(decimal.NewFromInt(200), 30)

		// (100*10 + 200*30) / 40 = 175
		vwap, ok := c.VWAP()
		if !ok {
			t.Fatal("VWAP should have a value for a non-empty window")
		}
		if !vwap.Equal(decimal.NewFromInt(175)) {
			t.Errorf("Expected 175, got %v", vwap)
		}
	})

	t.Run("Empty Window", func(t *testing.T) {
		c := NewCompany("VI", decimal.NewFromFloat(7.5), decimal.NewFromFloat(0.20))
		if _, ok := c.VWAP(); ok {
			t.Error("VWAP should have no value for an empty window")
		}
	})

	t.Run("Safety: Zero Total Quantity", func(t *testing.T) {
		c := NewCompany("VI", decimal.NewFromFloat(7.5), decimal.NewFromFloat(0.20))
		c.RecentTrades = []Trade{{Price: decimal.NewFromInt(10), Qty: 0}}
		if _, ok := c.VWAP(); ok {
			t.Error("VWAP must not divide by zero total quantity")
		}
	})
}

func TestCompany_RecordTrade(t *testing.T) {
	t.Run("Window Evicts Oldest First", func(t *testing.T) {
		c := NewCompany("BPCL", decimal.NewFromInt(330), decimal.NewFromFloat(0.20))
		for i := 1; i <= 5; i++ {
			c.RecordTrade(decimal.NewFromInt(int64(i*100)), 1)
		}

		if len(c.RecentTrades) != TradeWindowSize {
			t.Fatalf("Window should hold %d trades, got %d", TradeWindowSize, len(c.RecentTrades))
		}
		// Trades 1 and 2 evicted; oldest remaining is 300.
		if !c.RecentTrades[0].Price.Equal(decimal.NewFromInt(300)) {
			t.Errorf("Expected oldest trade at 300, got %v", c.RecentTrades[0].Price)
		}
	})

	t.Run("Volume And LTP Updated", func(t *testing.T) {
		c := NewCompany("IRFC", decimal.NewFromInt(140), decimal.NewFromFloat(0.20))
		c.RecordTrade(decimal.NewFromInt(150), 10)
		c.RecordTrade(decimal.NewFromInt(145), 5)

		if c.Volume != 15 {
			t.Errorf("Expected cumulative volume 15, got %d", c.Volume)
		}
		if !c.LastTraded.Equal(decimal.NewFromInt(145)) {
			t.Errorf("Expected LTP 145, got %v", c.LastTraded)
		}
	})

	t.Run("ClearTrades Empties Window", func(t *testing.T) {
		c := NewCompany("IRFC", decimal.NewFromInt(140), decimal.NewFromFloat(0.20))
		c.RecordTrade(decimal.NewFromInt(150), 10)
		c.ClearTrades()
		if _, ok := c.VWAP(); ok {
			t.Error("VWAP should have no value after the window is cleared")
		}
	})
}

func TestNewCompany_SeedsCircuit(t *testing.T) {
	c := NewCompany("RELIANCE", decimal.NewFromInt(1500), decimal.NewFromFloat(0.20))

	if !c.Circuit.Upper.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("Expected upper circuit 1800, got %v", c.Circuit.Upper)
	}
	if !c.Circuit.Lower.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected lower circuit 1200, got %v", c.Circuit.Lower)
	}
	if !c.Circuit.Established() {
		t.Error("Seeded circuit should be established")
	}
}

func TestBand_Contains(t *testing.T) {
	band := Band{Upper: decimal.NewFromInt(1080), Lower: decimal.NewFromInt(720)}

	if !band.Contains(decimal.NewFromInt(720)) || !band.Contains(decimal.NewFromInt(1080)) {
		t.Error("Bounds are inclusive")
	}
	if band.Contains(decimal.NewFromInt(1200)) {
		t.Error("1200 should be outside the band")
	}
	if (Band{}).Established() {
		t.Error("Zero band should not be established")
	}
}
