package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/abfoods/orderdesk/internal/inventory"
	"github.com/abfoods/orderdesk/internal/order"
)

func testItems() []inventory.Item {
	return []inventory.Item{
		{Description: "Frozen Widget", Vendor: "Acme", UnitsOnHand: "40", Category: "Frozen", ItemNumber: "1"},
		{Description: "Dry Widget", Vendor: "Bolt Co", UnitsOnHand: "12", Category: "Dry", ItemNumber: "2"},
		{Description: "Frozen Gadget", Vendor: "Acme", UnitsOnHand: "8", Category: "Frozen", ItemNumber: "3"},
	}
}

func TestSession_IngestAndFilter(t *testing.T) {
	s := newSession("test")

	if n := s.Ingest(testItems()); n != 3 {
		t.Fatalf("expected 3 items ingested, got %d", n)
	}

	s.SetSearch("widget")
	s.SetCategory("Frozen")

	got := s.FilteredItems()
	if len(got) != 1 || got[0].ItemNumber != "1" {
		t.Errorf("expected only item 1, got %+v", got)
	}

	cats := s.Categories()
	if len(cats) != 2 || cats[0] != "Frozen" || cats[1] != "Dry" {
		t.Errorf("categories should come from the full inventory: %v", cats)
	}
}

func TestSession_AddToCartUsesPendingQty(t *testing.T) {
	s := newSession("test")
	s.Ingest(testItems())

	s.SetQtyInput("1", "5")

	line, err := s.AddToCart("1")
	if err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if line.OrderQty != 5 {
		t.Errorf("expected order qty 5, got %d", line.OrderQty)
	}

	// The pending text is consumed: a second add defaults to 1.
	if view := s.View(); view.QtyInputs["1"] != "" {
		t.Errorf("pending qty should be cleared, got %q", view.QtyInputs["1"])
	}

	line, err = s.AddToCart("1")
	if err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if line.OrderQty != 1 {
		t.Errorf("expected default qty 1 after clear, got %d", line.OrderQty)
	}
}

func TestSession_AddToCartUnknownItem(t *testing.T) {
	s := newSession("test")
	s.Ingest(testItems())

	_, err := s.AddToCart("999")
	if !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
	if len(s.CartLines()) != 0 {
		t.Error("failed add should not touch the cart")
	}
}

func TestSession_ReingestPreservesCart(t *testing.T) {
	s := newSession("test")
	s.Ingest(testItems())

	s.SetQtyInput("1", "2")
	if _, err := s.AddToCart("1"); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	// Replace the inventory with a version where item 1 changed and
	// item 2 vanished.
	s.Ingest([]inventory.Item{
		{Description: "Frozen Widget v2", UnitsOnHand: "0", Category: "Frozen", ItemNumber: "1"},
	})

	lines := s.CartLines()
	if len(lines) != 1 {
		t.Fatalf("cart should survive re-ingestion, got %d lines", len(lines))
	}
	if lines[0].Description != "Frozen Widget" || lines[0].UnitsOnHand != "40" {
		t.Errorf("cart line should keep the add-time snapshot: %+v", lines[0])
	}

	// New lookups go against the new inventory.
	if _, err := s.AddToCart("2"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("vanished item should not resolve, got %v", err)
	}
}

func TestSession_RemoveFromCart(t *testing.T) {
	s := newSession("test")
	s.Ingest(testItems())

	s.AddToCart("1")
	s.AddToCart("2")

	s.RemoveFromCart(0)

	lines := s.CartLines()
	if len(lines) != 1 || lines[0].ItemNumber != "2" {
		t.Errorf("expected item 2 to remain, got %+v", lines)
	}

	// Out-of-range removes are no-ops.
	s.RemoveFromCart(5)
	s.RemoveFromCart(-1)
	if len(s.CartLines()) != 1 {
		t.Error("out-of-range remove should not change the cart")
	}
}

func TestSession_ViewSnapshot(t *testing.T) {
	s := newSession("test")
	s.SetSearch("wid")
	s.SetQtyInput("1", "4")

	view := s.View()
	view.QtyInputs["1"] = "mutated"

	if got := s.View().QtyInputs["1"]; got != "4" {
		t.Errorf("mutating a view snapshot leaked into the session: %q", got)
	}
}

func TestSession_BuildEmail(t *testing.T) {
	s := newSession("test")
	s.Ingest(testItems())

	s.SetQtyInput("1", "3")
	s.AddToCart("1")
	s.SetOrderInfo(order.Context{
		CustomerName: "Acme Foods",
		PONumber:     "1001",
		ShipTo:       "123 Main St",
	})

	email := s.BuildEmail("orders@example.com")
	if email.Recipient != "orders@example.com" {
		t.Errorf("recipient = %q", email.Recipient)
	}
	if email.Subject != "Purchase Order 1001" {
		t.Errorf("subject = %q", email.Subject)
	}
	if !strings.Contains(email.Body, "Frozen Widget (Acme) - Order Qty: 3 pallets | Units OH: 40") {
		t.Errorf("body missing cart line: %q", email.Body)
	}
}
