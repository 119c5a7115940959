package models

import "testing"

func TestInvoice_Recalculate(t *testing.T) {
	inv := &Invoice{
		TaxRate: 0.0825,
		LineItems: []LineItem{
			{Type: LineService, Description: "Oil Change", Quantity: 1, UnitPrice: 89.99},
			{Type: LinePart, Description: "Oil filter", Quantity: 2, UnitPrice: 12.50},
			{Type: LineLabor, Description: "Labor (45 min)", Quantity: 0.75, UnitPrice: 95.0},
		},
	}

	inv.Recalculate()

	if inv.LineItems[0].Total != 89.99 {
		t.Errorf("service line total = %v, want 89.99", inv.LineItems[0].Total)
	}
	if inv.LineItems[1].Total != 25.00 {
		t.Errorf("part line total = %v, want 25.00", inv.LineItems[1].Total)
	}
	if inv.LineItems[2].Total != 71.25 {
		t.Errorf("labor line total = %v, want 71.25", inv.LineItems[2].Total)
	}
	if inv.Subtotal != 186.24 {
		t.Errorf("subtotal = %v, want 186.24", inv.Subtotal)
	}
	if inv.Tax != 15.36 {
		t.Errorf("tax = %v, want 15.36", inv.Tax)
	}
	if inv.Total != 201.60 {
		t.Errorf("total = %v, want 201.60", inv.Total)
	}
}

func TestInvoice_RecalculateWithDiscount(t *testing.T) {
	inv := &Invoice{
		TaxRate:  0.0825,
		Discount: 20,
		LineItems: []LineItem{
			{Type: LineService, Quantity: 1, UnitPrice: 100},
		},
	}

	inv.Recalculate()

	if inv.Subtotal != 100.00 {
		t.Errorf("subtotal = %v, want 100.00", inv.Subtotal)
	}
	if inv.Tax != 8.25 {
		t.Errorf("tax = %v, want 8.25", inv.Tax)
	}
	// Discount reduces the total but not the taxed base.
	if inv.Total != 88.25 {
		t.Errorf("total = %v, want 88.25", inv.Total)
	}
}
