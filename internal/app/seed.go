package app

import (
	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

func SeedCatalog() []usecase.ProductInput {
	return []usecase.ProductInput{
		{SKU: "WHI-001", Name: "Whisky Escocés 12 años 750ml", Category: "Whisky", Price: 45.90, ReorderThreshold: 20,
			Stock: domain.Stock{Main: 60, Warehouse1: 24, Warehouse2: 12, Warehouse3: 6}},
		{SKU: "WHI-002", Name: "Bourbon Kentucky 1L", Category: "Whisky", Price: 38.50, ReorderThreshold: 15,
			Stock: domain.Stock{Main: 30, Warehouse1: 10, Warehouse2: 8}},
		{SKU: "VOD-001", Name: "Vodka Premium 750ml", Category: "Vodka", Price: 22.00, ReorderThreshold: 25,
			Stock: domain.Stock{Main: 80, Warehouse1: 30, Warehouse2: 20, Warehouse3: 15}},
		{SKU: "RON-001", Name: "Ron Añejo 7 años 700ml", Category: "Ron", Price: 27.40, ReorderThreshold: 15,
			Stock: domain.Stock{Main: 40, Warehouse1: 12, Warehouse3: 10}},
		{SKU: "GIN-001", Name: "Gin London Dry 700ml", Category: "Gin", Price: 31.20, ReorderThreshold: 12,
			Stock: domain.Stock{Main: 35, Warehouse2: 14}},
		{SKU: "TEQ-001", Name: "Tequila Reposado 750ml", Category: "Tequila", Price: 34.80, ReorderThreshold: 10,
			Stock: domain.Stock{Main: 18, Warehouse1: 6}},
		{SKU: "VIN-001", Name: "Vino Malbec Reserva 750ml", Category: "Vinos", Price: 14.60, ReorderThreshold: 48,
			Stock: domain.Stock{Main: 240, Warehouse1: 96, Warehouse2: 72, Warehouse3: 48}},
		{SKU: "VIN-002", Name: "Vino Cabernet Sauvignon 750ml", Category: "Vinos", Price: 13.90, ReorderThreshold: 48,
			Stock: domain.Stock{Main: 180, Warehouse1: 60, Warehouse2: 36}},
		{SKU: "ESP-001", Name: "Espumante Brut Nature 750ml", Category: "Espumantes", Price: 19.70, ReorderThreshold: 24,
			Stock: domain.Stock{Main: 72, Warehouse3: 24}},
		{SKU: "CER-001", Name: "Cerveza IPA lata 473ml x24", Category: "Cervezas", Price: 29.00, ReorderThreshold: 30,
			Stock: domain.Stock{Main: 50, Warehouse1: 40, Warehouse2: 40, Warehouse3: 20}},
		{SKU: "LIC-001", Name: "Licor de Café 700ml", Category: "Licores", Price: 17.30, ReorderThreshold: 10,
			Stock: domain.Stock{Main: 8, Warehouse1: 2}},
		{SKU: "APE-001", Name: "Aperitivo Amargo 750ml", Category: "Aperitivos", Price: 12.80, ReorderThreshold: 20,
			Stock: domain.Stock{Main: 45, Warehouse1: 15, Warehouse2: 15}},
	}
}
