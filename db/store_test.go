package db

import "testing"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndListListings(t *testing.T) {
	store := openTestStore(t)

	added, err := store.AddListing("tomato", 50, "Village X", "Hindi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added.ID == 0 {
		t.Fatal("expected assigned listing ID")
	}
	if added.Status != "available" {
		t.Fatalf("expected available status, got %q", added.Status)
	}

	if _, err := store.AddListing("wheat", 100, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listings, err := store.Listings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[1].Location != "Village X" || listings[1].Language != "Hindi" {
		t.Fatalf("defaults not applied: %+v", listings[1])
	}
}

func TestListingsByCrop(t *testing.T) {
	store := openTestStore(t)

	store.AddListing("Tomato", 50, "", "")
	store.AddListing("wheat", 100, "", "")

	listings, err := store.ListingsByCrop("tomato")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 tomato listing, got %d", len(listings))
	}
}

func TestConfirmOrder(t *testing.T) {
	store := openTestStore(t)

	first, err := store.ConfirmOrder("tomato", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.ConfirmOrder("wheat", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("order IDs must increase: %d then %d", first.ID, second.ID)
	}
}

func TestGetStats(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.TotalListings != 0 || empty.TotalQuantity != 0 || empty.UniqueCrops != 0 {
		t.Fatalf("expected empty stats, got %+v", empty)
	}

	store.AddListing("tomato", 50, "", "")
	store.AddListing("tomato", 30, "", "")
	store.AddListing("wheat", 100, "", "")

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalListings != 3 || stats.TotalQuantity != 180 || stats.UniqueCrops != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
