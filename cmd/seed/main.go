package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/catalog"
)

// Writes a demo catalog sheet for CATALOG_FILE.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	if _, err := os.Stat(filePath); err == nil {
		fmt.Printf("%s already exists. Overwrite? (yes/no): ", filePath)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Seed cancelled.")
			return
		}
	}

	products := demoProducts()
	if err := catalog.WriteXLSX(filePath, products); err != nil {
		log.Fatal("Failed to write XLSX:", err)
	}

	// Read it back so a broken sheet fails here rather than at server start
	loaded, err := catalog.LoadXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read back XLSX:", err)
	}

	fmt.Println("Seed completed successfully!")
	fmt.Printf("Total products written: %d\n", len(loaded))
}

func demoProducts() []model.Product {
	price := func(v int64) *int64 { return &v }

	return []model.Product{
		{ID: "1", Name: "Linen Shirt", Price: 890000, OldPrice: price(1090000), Image: "/images/products/linen-shirt.jpg"},
		{ID: "2", Name: "Denim Jacket", Price: 1450000, Image: "/images/products/denim-jacket.jpg"},
		{ID: "3", Name: "Cotton T-Shirt", Price: 320000, OldPrice: price(390000), Image: "/images/products/cotton-tshirt.jpg"},
		{ID: "4", Name: "Wool Scarf", Price: 260000, Image: "/images/products/wool-scarf.jpg"},
		{ID: "5", Name: "Leather Belt", Price: 410000, Image: "/images/products/leather-belt.jpg"},
		{ID: "6", Name: "Canvas Sneakers", Price: 980000, OldPrice: price(1200000), Image: "/images/products/canvas-sneakers.jpg"},
	}
}
