package memory_test

import (
	"context"
	"errors"
	"testing"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/store/memory"
	"github.com/google/uuid"
)

func TestSeededCatalog(t *testing.T) {
	s := memory.NewSeeded()

	products, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(products) != 11 {
		t.Fatalf("len(products) = %d, want 11", len(products))
	}
	for i := 1; i < len(products); i++ {
		if products[i-1].Name > products[i].Name {
			t.Fatalf("products not ordered by name: %q before %q", products[i-1].Name, products[i].Name)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := catalog.Product{Name: "Widget", Price: 9.99, SKU: "W-1", IsActive: true}
	if err := s.Create(ctx, &p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("Create() should assign an id")
	}
	if p.CreatedAt.IsZero() {
		t.Fatal("Create() should stamp CreatedAt")
	}

	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "Widget" || got.SKU != "W-1" {
		t.Errorf("Get() = %+v, want Widget/W-1", got)
	}
}

func TestCreate_DuplicateSKU(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	first := catalog.Product{Name: "A", SKU: "DUP", IsActive: true}
	if err := s.Create(ctx, &first); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	second := catalog.Product{Name: "B", SKU: "DUP", IsActive: true}
	if err := s.Create(ctx, &second); !errors.Is(err, catalog.ErrDuplicateSKU) {
		t.Fatalf("Create() error = %v, want ErrDuplicateSKU", err)
	}
}

func TestUpdate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := catalog.Product{Name: "Old", SKU: "S-1", IsActive: true}
	if err := s.Create(ctx, &p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	p.Name = "New"
	p.SKU = "S-2"
	if err := s.Update(ctx, &p); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "New" || got.SKU != "S-2" {
		t.Errorf("after update got %+v", got)
	}

	// old SKU must be reusable once released
	other := catalog.Product{Name: "Other", SKU: "S-1", IsActive: true}
	if err := s.Create(ctx, &other); err != nil {
		t.Errorf("Create() with released SKU error: %v", err)
	}
}

func TestUpdate_Missing(t *testing.T) {
	s := memory.New()
	p := catalog.Product{ID: uuid.New(), Name: "Ghost"}
	if err := s.Update(context.Background(), &p); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_DuplicateSKU(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := catalog.Product{Name: "A", SKU: "SKU-A", IsActive: true}
	b := catalog.Product{Name: "B", SKU: "SKU-B", IsActive: true}
	for _, p := range []*catalog.Product{&a, &b} {
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	b.SKU = "SKU-A"
	if err := s.Update(ctx, &b); !errors.Is(err, catalog.ErrDuplicateSKU) {
		t.Fatalf("Update() error = %v, want ErrDuplicateSKU", err)
	}
}

func TestDelete(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := catalog.Product{Name: "Doomed", SKU: "D-1", IsActive: true}
	if err := s.Create(ctx, &p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, p.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}

	// SKU released by delete
	again := catalog.Product{Name: "Reborn", SKU: "D-1", IsActive: true}
	if err := s.Create(ctx, &again); err != nil {
		t.Errorf("Create() after delete error: %v", err)
	}
}

func TestList_FiltersInactive(t *testing.T) {
	s := memory.New(
		memory.WithProduct(catalog.Product{ID: uuid.New(), Name: "Active", IsActive: true}),
		memory.WithProduct(catalog.Product{ID: uuid.New(), Name: "Retired", IsActive: false}),
	)

	products, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Active" {
		t.Errorf("List() = %v, want only the active product", products)
	}
}
