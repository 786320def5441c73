package service

import (
	"errors"
	"testing"
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/ws"

	"gorm.io/gorm"
)

func TestConsumeRollsFIFOOrder(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50", "100")

	result, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("70"))
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected consumption to succeed")
	}
	if len(result.ConsumedRolls) != 2 {
		t.Fatalf("expected 2 consumed rolls, got %d", len(result.ConsumedRolls))
	}
	mustDecimalEqual(t, dec("50"), result.ConsumedRolls[0].QuantityUsed, "oldest roll draw")
	mustDecimalEqual(t, dec("20"), result.ConsumedRolls[1].QuantityUsed, "second roll draw")

	var rolls []model.Roll
	if err := env.db.Where("inventory_item_id = ?", item.ID).Order("created_at ASC").Find(&rolls).Error; err != nil {
		t.Fatalf("failed to load rolls: %v", err)
	}
	if rolls[0].Status != model.RollFinished {
		t.Fatalf("expected oldest roll to be Finished, got %s", rolls[0].Status)
	}
	if rolls[0].FinishedAt == nil {
		t.Fatal("expected finished roll to carry a finish timestamp")
	}
	mustDecimalEqual(t, dec("0"), rolls[0].RemainingSqft, "finished roll remaining sqft")
	mustDecimalEqual(t, dec("0"), rolls[0].RemainingMeters, "finished roll remaining meters")
	if rolls[1].Status != model.RollAvailable {
		t.Fatalf("expected second roll to stay Available, got %s", rolls[1].Status)
	}
	mustDecimalEqual(t, dec("80"), rolls[1].RemainingSqft, "second roll remaining sqft")

	updated, err := env.inventory.GetItem(item.ID)
	if err != nil {
		t.Fatalf("failed to reload item: %v", err)
	}
	mustDecimalEqual(t, dec("80"), updated.Quantity, "aggregate quantity")
}

func TestConsumeRollsFIFOSingleRollSufficient(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50", "100")

	result, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("30"))
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected consumption to succeed")
	}
	if len(result.ConsumedRolls) != 1 {
		t.Fatalf("expected only the oldest roll to be drawn, got %d entries", len(result.ConsumedRolls))
	}
	mustDecimalEqual(t, dec("30"), result.ConsumedRolls[0].QuantityUsed, "oldest roll draw")

	var rolls []model.Roll
	env.db.Where("inventory_item_id = ?", item.ID).Order("created_at ASC").Find(&rolls)
	mustDecimalEqual(t, dec("20"), rolls[0].RemainingSqft, "oldest roll remaining")
	mustDecimalEqual(t, dec("100"), rolls[1].RemainingSqft, "newer roll untouched")
}

func TestConsumeRollsFIFOInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50", "100")

	result, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("200"))
	if err != nil {
		t.Fatalf("consume returned unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected consumption to fail")
	}
	if len(result.ConsumedRolls) != 0 {
		t.Fatalf("expected no consumed rolls on failure, got %d", len(result.ConsumedRolls))
	}

	// Nothing may have been mutated.
	var rolls []model.Roll
	env.db.Where("inventory_item_id = ?", item.ID).Order("created_at ASC").Find(&rolls)
	mustDecimalEqual(t, dec("50"), rolls[0].RemainingSqft, "first roll unchanged")
	mustDecimalEqual(t, dec("100"), rolls[1].RemainingSqft, "second roll unchanged")

	updated, _ := env.inventory.GetItem(item.ID)
	mustDecimalEqual(t, dec("150"), updated.Quantity, "aggregate unchanged")
}

func TestConsumeRollsFIFONoActiveRolls(t *testing.T) {
	env := newTestEnv(t)
	item := seedAccessory(t, env, "Squeegee", "10", "150")

	result, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("1"))
	if err != nil {
		t.Fatalf("consume returned unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for an item with no rolls")
	}
}

func TestConsumeRollsDepletionTolerance(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50")

	// Leaves 0.005 sqft, inside the depletion tolerance.
	result, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("49.995"))
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected consumption to succeed")
	}

	var roll model.Roll
	env.db.Where("inventory_item_id = ?", item.ID).First(&roll)
	if roll.Status != model.RollFinished {
		t.Fatalf("expected dust remainder to archive the roll, got status %s", roll.Status)
	}
	mustDecimalEqual(t, dec("0"), roll.RemainingSqft, "archived roll remaining sqft")
	mustDecimalEqual(t, dec("0"), roll.RemainingMeters, "archived roll remaining meters")
}

func TestConsumeRollsProportionalUnitSync(t *testing.T) {
	env := newTestEnv(t)
	// 100 sqft / 10 m roll via the seed helper's 10:1 ratio.
	item := seedRollItem(t, env, "Elite", "100")

	if _, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("40")); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	var roll model.Roll
	env.db.Where("inventory_item_id = ?", item.ID).First(&roll)
	mustDecimalEqual(t, dec("60"), roll.RemainingSqft, "native unit remaining")
	mustDecimalEqual(t, dec("6"), roll.RemainingMeters, "secondary unit kept in proportion")
}

func TestAddRollBumpsAggregate(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50")

	updated, err := env.inventory.AddRoll(item.ID, &AddRollRequest{
		Name:       "Elite Roll 2",
		Unit:       model.UnitSquareFeet,
		Meters:     dec("10"),
		SquareFeet: dec("100"),
	})
	if err != nil {
		t.Fatalf("add roll failed: %v", err)
	}
	mustDecimalEqual(t, dec("150"), updated.Quantity, "aggregate after add")

	var roll model.Roll
	env.db.Where("inventory_item_id = ? AND name = ?", item.ID, "Elite Roll 2").First(&roll)
	mustDecimalEqual(t, dec("100"), roll.RemainingSqft, "new roll remaining sqft")
	mustDecimalEqual(t, dec("10"), roll.RemainingMeters, "new roll remaining meters")
	if roll.Status != model.RollAvailable {
		t.Fatalf("expected new roll to be Available, got %s", roll.Status)
	}
}

func TestDeleteRollDecrementsByRemaining(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50", "100")

	// Drain 30 off the oldest roll first, leaving 20 on it.
	if _, err := env.inventory.ConsumeRollsFIFO(item.ID, dec("30")); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	var oldest model.Roll
	env.db.Where("inventory_item_id = ?", item.ID).Order("created_at ASC").First(&oldest)

	updated, err := env.inventory.DeleteRoll(item.ID, oldest.ID)
	if err != nil {
		t.Fatalf("delete roll failed: %v", err)
	}
	// 150 - 30 consumed - 20 remaining on the deleted roll.
	mustDecimalEqual(t, dec("100"), updated.Quantity, "aggregate after delete")
}

func TestConsumeRollsBroadcastsAfterCommitOnly(t *testing.T) {
	env := newTestEnv(t)
	hub := ws.NewHub()
	inventory := NewInventoryService(env.inventoryRepo, env.saleRepo, env.db, hub)
	item := seedRollItem(t, env, "Elite", "50")

	// A consumption inside a transaction that rolls back must not reach clients.
	err := env.db.Transaction(func(tx *gorm.DB) error {
		if _, err := inventory.ConsumeRollsFIFOTx(tx, item.ID, dec("10")); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	if err == nil {
		t.Fatal("expected the forced rollback to surface")
	}
	select {
	case msg := <-hub.Broadcast:
		t.Fatalf("unexpected broadcast for rolled-back consumption: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}

	// The committed path announces the consumption once.
	if _, err := inventory.ConsumeRollsFIFO(item.ID, dec("10")); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	select {
	case <-hub.Broadcast:
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast after the committed consumption")
	}
}

func TestRecordAccessorySale(t *testing.T) {
	env := newTestEnv(t)
	item := seedAccessory(t, env, "Microfiber Cloth", "20", "150")

	sale, err := env.inventory.RecordAccessorySale(&AccessorySaleRequest{
		InventoryItemID: item.ID,
		Quantity:        dec("3"),
		CustomerName:    "Walk-in",
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	mustDecimalEqual(t, dec("150"), sale.UnitPrice, "unit price falls back to item price")
	mustDecimalEqual(t, dec("450"), sale.Total, "sale total")

	updated, _ := env.inventory.GetItem(item.ID)
	mustDecimalEqual(t, dec("17"), updated.Quantity, "stock after sale")
}

func TestRecordAccessorySaleInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	item := seedAccessory(t, env, "Microfiber Cloth", "2", "150")

	_, err := env.inventory.RecordAccessorySale(&AccessorySaleRequest{
		InventoryItemID: item.ID,
		Quantity:        dec("5"),
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	updated, _ := env.inventory.GetItem(item.ID)
	mustDecimalEqual(t, dec("2"), updated.Quantity, "stock unchanged after failed sale")
}

func TestUpdateItemKeepsRollDerivedQuantity(t *testing.T) {
	env := newTestEnv(t)
	item := seedRollItem(t, env, "Elite", "50")

	updated, err := env.inventory.UpdateItem(item.ID, &model.InventoryItem{
		Name:     "Elite Pro",
		Category: "PPF",
		Unit:     model.UnitSquareFeet,
		Quantity: dec("999"),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Elite Pro" {
		t.Fatalf("expected name to update, got %s", updated.Name)
	}
	mustDecimalEqual(t, dec("50"), updated.Quantity, "roll-derived quantity not directly editable")
}
