package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/cashflow"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func idr(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// SeedCategories is the demo category list.
func SeedCategories() []product.Category {
	return []product.Category{
		{ID: "1", Name: "Makanan"},
		{ID: "2", Name: "Minuman"},
		{ID: "3", Name: "Snack"},
		{ID: "4", Name: "Alat Tulis"},
	}
}

// SeedProducts is the demo catalog.
func SeedProducts() []product.Product {
	return []product.Product{
		{ID: "p1", Name: "Nasi Goreng Spesial", CategoryID: "1", Price: idr(25000), CostPrice: idr(15000), Stock: 50, MinStock: 5, Discount: idr(0), SKU: "SKU001", Image: "https://picsum.photos/seed/nasi/200"},
		{ID: "p2", Name: "Es Teh Manis", CategoryID: "2", Price: idr(5000), CostPrice: idr(1500), Stock: 100, MinStock: 10, Discount: idr(0), SKU: "SKU002", Image: "https://picsum.photos/seed/esteh/200"},
		{ID: "p3", Name: "Kopi Susu Gula Aren", CategoryID: "2", Price: idr(18000), CostPrice: idr(8000), Stock: 40, MinStock: 5, Discount: idr(10), SKU: "SKU003", Image: "https://picsum.photos/seed/kopi/200"},
		{ID: "p4", Name: "Chiki Balls", CategoryID: "3", Price: idr(8000), CostPrice: idr(6000), Stock: 20, MinStock: 10, Discount: idr(0), SKU: "SKU004", Image: "https://picsum.photos/seed/snack/200"},
	}
}

// SeedMembers is the demo member list.
func SeedMembers() []member.Member {
	return []member.Member{
		{ID: "m1", Name: "Budi Santoso", Phone: "08123456789", Points: 1500, JoinDate: day(2023, time.January, 15)},
		{ID: "m2", Name: "Siti Aminah", Phone: "08567891234", Points: 200, JoinDate: day(2023, time.May, 20)},
	}
}

// SeedCashFlow is the demo cash ledger.
func SeedCashFlow() []cashflow.Record {
	return []cashflow.Record{
		{ID: "cf1", Date: day(2023, time.October, 25), Type: cashflow.TypeOut, Amount: idr(500000), Description: "Pembayaran Listrik Bulanan", Category: "Operasional"},
		{ID: "cf2", Date: day(2023, time.October, 25), Type: cashflow.TypeIn, Amount: idr(2000000), Description: "Setoran Modal Awal Hari", Category: "Modal"},
		{ID: "cf3", Date: day(2023, time.October, 24), Type: cashflow.TypeOut, Amount: idr(150000), Description: "Beli Galon & Kebersihan", Category: "Kebutuhan Kantor"},
		{ID: "cf4", Date: day(2023, time.October, 23), Type: cashflow.TypeOut, Amount: idr(3000000), Description: "Sewa Ruko Tahap 2", Category: "Sewa"},
	}
}
