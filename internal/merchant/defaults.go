package merchant

import "github.com/opensource-finance/harrier/internal/domain"

// DefaultMerchants returns the seed directory of well-known merchants.
// Confidence reflects how unambiguous the name is in a bank statement line.
func DefaultMerchants() []domain.MerchantRecord {
	return []domain.MerchantRecord{
		{Name: "Woolworths", Aliases: []string{"WOOLIES", "WW FOOD"}, Category: domain.CategoryGroceries, Confidence: 95},
		{Name: "Checkers", Aliases: []string{"CHECKERS SIXTY60"}, Category: domain.CategoryGroceries, Confidence: 95},
		{Name: "Pick n Pay", Aliases: []string{"PNP", "PICKNPAY"}, Category: domain.CategoryGroceries, Confidence: 95},
		{Name: "Shoprite", Category: domain.CategoryGroceries, Confidence: 95},
		{Name: "Spar", Aliases: []string{"SUPERSPAR", "KWIKSPAR"}, Category: domain.CategoryGroceries, Confidence: 90},

		{Name: "Engen", Category: domain.CategoryFuel, Confidence: 95},
		{Name: "Shell", Category: domain.CategoryFuel, Confidence: 90},
		{Name: "Sasol", Category: domain.CategoryFuel, Confidence: 95},
		{Name: "BP Garage", Aliases: []string{"BP EXPRESS"}, Category: domain.CategoryFuel, Confidence: 90},

		{Name: "KFC", Category: domain.CategoryDining, Confidence: 95},
		{Name: "Nandos", Aliases: []string{"NANDO'S"}, Category: domain.CategoryDining, Confidence: 95},
		{Name: "Steers", Category: domain.CategoryDining, Confidence: 95},
		{Name: "Uber Eats", Aliases: []string{"UBEREATS"}, Category: domain.CategoryDining, Confidence: 95},
		{Name: "Mr D Food", Aliases: []string{"MRD FOOD"}, Category: domain.CategoryDining, Confidence: 95},

		{Name: "Uber", Category: domain.CategoryTransport, Confidence: 90},
		{Name: "Bolt", Category: domain.CategoryTransport, Confidence: 90},
		{Name: "Gautrain", Category: domain.CategoryTransport, Confidence: 95},

		{Name: "Netflix", Category: domain.CategoryEntertainment, Confidence: 98},
		{Name: "Spotify", Category: domain.CategoryEntertainment, Confidence: 98},
		{Name: "DStv", Aliases: []string{"MULTICHOICE"}, Category: domain.CategoryEntertainment, Confidence: 95},
		{Name: "Showmax", Category: domain.CategoryEntertainment, Confidence: 95},

		{Name: "Eskom", Category: domain.CategoryUtilities, Confidence: 98},
		{Name: "Vodacom", Category: domain.CategoryUtilities, Confidence: 95},
		{Name: "MTN", Category: domain.CategoryUtilities, Confidence: 95},
		{Name: "Telkom", Category: domain.CategoryUtilities, Confidence: 95},

		{Name: "Takealot", Category: domain.CategoryShopping, Confidence: 95},
		{Name: "Mr Price", Aliases: []string{"MRP"}, Category: domain.CategoryShopping, Confidence: 90},
		{Name: "Game Stores", Aliases: []string{"GAME "}, Category: domain.CategoryShopping, Confidence: 85},

		{Name: "Dis-Chem", Aliases: []string{"DISCHEM"}, Category: domain.CategoryHealthcare, Confidence: 95},
		{Name: "Clicks", Category: domain.CategoryHealthcare, Confidence: 90},

		{Name: "Discovery", Aliases: []string{"DISCOVERY HEALTH"}, Category: domain.CategoryInsurance, Confidence: 90},
		{Name: "Outsurance", Category: domain.CategoryInsurance, Confidence: 95},
		{Name: "Santam", Category: domain.CategoryInsurance, Confidence: 95},
	}
}
