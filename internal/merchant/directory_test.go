package merchant

import (
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestDirectoryMatch(t *testing.T) {
	d := NewDirectory(DefaultMerchants())

	t.Run("NameInDescription", func(t *testing.T) {
		rec, ok := d.Match("POS PURCHASE CHECKERS HYPER N1 CITY")
		if !ok {
			t.Fatal("expected a match")
		}
		if rec.Name != "Checkers" {
			t.Errorf("expected Checkers, got %s", rec.Name)
		}
		if rec.Category != domain.CategoryGroceries {
			t.Errorf("expected GROCERIES, got %s", rec.Category)
		}
	})

	t.Run("AliasMatch", func(t *testing.T) {
		rec, ok := d.Match("PNP FAMILY CLAREMONT")
		if !ok {
			t.Fatal("expected alias match")
		}
		if rec.Name != "Pick n Pay" {
			t.Errorf("expected Pick n Pay, got %s", rec.Name)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		if _, ok := d.Match("woolies dash delivery"); !ok {
			t.Error("expected case-insensitive alias match")
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		if _, ok := d.Match("zzqx 9917"); ok {
			t.Error("expected no match")
		}
	})

	t.Run("EmptyDescription", func(t *testing.T) {
		if _, ok := d.Match(""); ok {
			t.Error("expected no match for empty description")
		}
	})

	t.Run("MatchReturnsCopy", func(t *testing.T) {
		rec, ok := d.Match("NETFLIX.COM")
		if !ok {
			t.Fatal("expected a match")
		}
		rec.Confidence = 1

		again, _ := d.Match("NETFLIX.COM")
		if again.Confidence != 98 {
			t.Errorf("mutating a match leaked into the directory: %0.1f", again.Confidence)
		}
	})
}

func TestDirectoryAdd(t *testing.T) {
	t.Run("AppendsAndMatches", func(t *testing.T) {
		d := NewDirectory(nil)
		if !d.Add(domain.MerchantRecord{Name: "Butler's Pizza", Category: domain.CategoryDining, Confidence: 85}) {
			t.Fatal("Add returned false")
		}
		if d.Count() != 1 {
			t.Errorf("expected count 1, got %d", d.Count())
		}
		if !d.Has("butler's pizza") {
			t.Error("Has must be case-insensitive")
		}
		if _, ok := d.Match("BUTLER'S PIZZA KENILWORTH"); !ok {
			t.Error("expected added merchant to match")
		}
	})

	t.Run("RejectsDuplicates", func(t *testing.T) {
		d := NewDirectory(nil)
		d.Add(domain.MerchantRecord{Name: "Spur", Category: domain.CategoryDining, Confidence: 90})
		if d.Add(domain.MerchantRecord{Name: "SPUR", Category: domain.CategoryDining, Confidence: 50}) {
			t.Error("expected duplicate name rejected")
		}
		if d.Count() != 1 {
			t.Errorf("expected count 1, got %d", d.Count())
		}
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		d := NewDirectory(nil)
		if d.Add(domain.MerchantRecord{Name: ""}) {
			t.Error("expected empty name rejected")
		}
	})
}

func TestDirectoryAll(t *testing.T) {
	d := NewDirectory([]domain.MerchantRecord{
		{Name: "Zando", Category: domain.CategoryShopping},
		{Name: "Ackermans", Category: domain.CategoryShopping},
	})

	all := d.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].Name != "Ackermans" || all[1].Name != "Zando" {
		t.Errorf("expected sorted output, got [%s %s]", all[0].Name, all[1].Name)
	}
}
