package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/comunalve/factura-engine/internal/entity"
	"github.com/comunalve/factura-engine/internal/parse"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name    string
		rif     string
		number  string
		rif2    string
		number2 string
		same    bool
	}{
		{"identical", "J-12345678-9", "00123", "J-12345678-9", "00123", true},
		{"separator style", "J-12345678-9", "00123", "j.12345678.9", "00123", true},
		{"leading zeros", "J-12345678-9", "00123", "J-12345678-9", "123", true},
		{"case", "j-12345678-9", "A-55", "J-12345678-9", "a/55", true},
		{"different number", "J-12345678-9", "00123", "J-12345678-9", "00124", false},
		{"different rif", "J-12345678-9", "00123", "V-12345678-9", "00123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NormalizeKey(tt.rif, tt.number)
			b := NormalizeKey(tt.rif2, tt.number2)
			if (a == b) != tt.same {
				t.Errorf("NormalizeKey(%q,%q)=%q vs NormalizeKey(%q,%q)=%q, same=%v want %v",
					tt.rif, tt.number, a, tt.rif2, tt.number2, b, a == b, tt.same)
			}
		})
	}
}

func TestNormalizeKeyZeroOnlyNumber(t *testing.T) {
	// "000" and "0" both normalize to an empty number segment; they collide by
	// design, matching the leading-zero rule applied to its edge.
	if NormalizeKey("J-1-2", "000") != NormalizeKey("J-1-2", "0") {
		t.Error("zero-only numbers should normalize identically")
	}
}

func TestFindDuplicate(t *testing.T) {
	stored := []*entity.Invoice{
		{ID: uuid.New(), RIF: "V-11111111-1", InvoiceNumber: "555"},
		{ID: uuid.New(), RIF: "J-12345678-9", InvoiceNumber: "00123"},
	}

	t.Run("match across formatting", func(t *testing.T) {
		candidate := parse.Fields{RIF: "j.12345678.9", InvoiceNumber: "123"}
		dup := FindDuplicate(candidate, stored)
		if dup == nil {
			t.Fatal("expected a duplicate")
		}
		if dup.InvoiceNumber != "00123" {
			t.Errorf("matched wrong record: %q", dup.InvoiceNumber)
		}
	})

	t.Run("no match", func(t *testing.T) {
		candidate := parse.Fields{RIF: "J-12345678-9", InvoiceNumber: "999"}
		if dup := FindDuplicate(candidate, stored); dup != nil {
			t.Errorf("unexpected duplicate: %v", dup.ID)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		candidate := parse.Fields{RIF: "J-12345678-9", InvoiceNumber: "123"}
		if dup := FindDuplicate(candidate, nil); dup != nil {
			t.Error("unexpected duplicate against empty store")
		}
	})
}
