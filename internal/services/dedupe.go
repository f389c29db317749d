package services

import (
	"log"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
)

// Duplicate-merge maintenance routine. Offline one-shot: merges records
// that share a name into the lowest-ID survivor, repoints references,
// deletes the rest. Run via the -remove-duplicates flag.

type DedupeResult struct {
	ProductsRemoved int
	ClientsRemoved  int
	LinesRemoved    int
}

func RemoveDuplicates(db *gorm.DB) (DedupeResult, error) {
	var res DedupeResult
	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := dedupeProducts(tx)
		if err != nil {
			return err
		}
		res.ProductsRemoved = n
		if n, err = dedupeClients(tx); err != nil {
			return err
		}
		res.ClientsRemoved = n
		if n, err = dedupeSaleLines(tx); err != nil {
			return err
		}
		res.LinesRemoved = n
		return nil
	})
	return res, err
}

// dedupeProducts merges products sharing a name: stock is summed into
// the lowest-ID product, sale lines are repointed to it, the rest are
// deleted.
func dedupeProducts(tx *gorm.DB) (int, error) {
	var names []string
	if err := tx.Model(&models.Product{}).
		Select("name").Group("name").Having("COUNT(id) > 1").
		Pluck("name", &names).Error; err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		var dupes []models.Product
		if err := tx.Where("name = ?", name).Order("id asc").Find(&dupes).Error; err != nil {
			return removed, err
		}
		if len(dupes) < 2 {
			continue
		}
		keeper := dupes[0]
		totalStock := 0
		extraIDs := make([]uint, 0, len(dupes)-1)
		for _, p := range dupes {
			totalStock += p.Stock
			if p.ID != keeper.ID {
				extraIDs = append(extraIDs, p.ID)
			}
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", keeper.ID).
			UpdateColumn("stock", totalStock).Error; err != nil {
			return removed, err
		}
		// Repoint lines before deleting, otherwise the referential
		// protection on products would block the delete.
		if err := tx.Model(&models.SaleLine{}).Where("product_id IN ?", extraIDs).
			UpdateColumn("product_id", keeper.ID).Error; err != nil {
			return removed, err
		}
		if err := tx.Delete(&models.Product{}, extraIDs).Error; err != nil {
			return removed, err
		}
		removed += len(extraIDs)
		log.Printf("dedupe: product %q merged, %d duplicate(s) removed", name, len(extraIDs))
	}
	return removed, nil
}

// dedupeClients merges clients sharing a name; their sales move to the
// lowest-ID client.
func dedupeClients(tx *gorm.DB) (int, error) {
	var names []string
	if err := tx.Model(&models.Client{}).
		Select("nom").Group("nom").Having("COUNT(id) > 1").
		Pluck("nom", &names).Error; err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		var dupes []models.Client
		if err := tx.Where("nom = ?", name).Order("id asc").Find(&dupes).Error; err != nil {
			return removed, err
		}
		if len(dupes) < 2 {
			continue
		}
		keeper := dupes[0]
		extraIDs := make([]uint, 0, len(dupes)-1)
		for _, c := range dupes[1:] {
			extraIDs = append(extraIDs, c.ID)
		}
		if err := tx.Model(&models.Sale{}).Where("client_id IN ?", extraIDs).
			UpdateColumn("client_id", keeper.ID).Error; err != nil {
			return removed, err
		}
		if err := tx.Delete(&models.Client{}, extraIDs).Error; err != nil {
			return removed, err
		}
		removed += len(extraIDs)
		log.Printf("dedupe: client %q merged, %d duplicate(s) removed", name, len(extraIDs))
	}
	return removed, nil
}

// dedupeSaleLines merges lines of the same sale and product by summing
// quantities into the lowest-ID line, then recomputes affected totals.
func dedupeSaleLines(tx *gorm.DB) (int, error) {
	var sales []models.Sale
	if err := tx.Preload("Lines").Find(&sales).Error; err != nil {
		return 0, err
	}
	removed := 0
	for i := range sales {
		sale := &sales[i]
		byProduct := map[uint][]*models.SaleLine{}
		for j := range sale.Lines {
			line := &sale.Lines[j]
			byProduct[line.ProductID] = append(byProduct[line.ProductID], line)
		}
		merged := false
		for _, lines := range byProduct {
			if len(lines) < 2 {
				continue
			}
			keeper := lines[0]
			total := 0
			extraIDs := make([]uint, 0, len(lines)-1)
			for _, l := range lines {
				total += l.Quantity
				if l.ID != keeper.ID {
					extraIDs = append(extraIDs, l.ID)
				}
			}
			if err := tx.Model(&models.SaleLine{}).Where("id = ?", keeper.ID).
				UpdateColumn("quantity", total).Error; err != nil {
				return removed, err
			}
			if err := tx.Delete(&models.SaleLine{}, extraIDs).Error; err != nil {
				return removed, err
			}
			removed += len(extraIDs)
			merged = true
		}
		if merged {
			var fresh models.Sale
			if err := tx.Preload("Lines").First(&fresh, sale.ID).Error; err != nil {
				return removed, err
			}
			if err := tx.Model(&models.Sale{}).Where("id = ?", fresh.ID).
				UpdateColumn("total", fresh.ComputeTotal()).Error; err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}
