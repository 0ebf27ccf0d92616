package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/licensedesk/internal/constants"
)

func TestCatalogResolveNestedCombo(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.createProduct(t, "OFFICE2021", constants.ProductKindLicenseKey)
	f.createProduct(t, "VISIO2021", constants.ProductKindLicenseKey)
	f.createProduct(t, "COMBO-A", constants.ProductKindCombo, "WIN11PRO", "OFFICE2021")
	f.createProduct(t, "COMBO-B", constants.ProductKindCombo, "COMBO-A", "VISIO2021")

	resolved, err := f.catalog.Resolve(context.Background(), "COMBO-B")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{"WIN11PRO", "OFFICE2021", "VISIO2021"}
	if !reflect.DeepEqual(resolved.Components, want) {
		t.Fatalf("components want %v got %v", want, resolved.Components)
	}
	if !resolved.IsCombo() || resolved.SlotsPerUnit() != 3 {
		t.Fatalf("unexpected resolved product: %+v", resolved)
	}

	leaf, err := f.catalog.Resolve(context.Background(), "WIN11PRO")
	if err != nil {
		t.Fatalf("resolve leaf failed: %v", err)
	}
	if leaf.IsCombo() || !reflect.DeepEqual(leaf.Components, []string{"WIN11PRO"}) {
		t.Fatalf("unexpected leaf: %+v", leaf)
	}
}

func TestCatalogResolveConfigurationErrors(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.createProduct(t, "M365", constants.ProductKindSubscription)
	f.createProduct(t, "LOOP-A", constants.ProductKindCombo, "LOOP-B")
	f.createProduct(t, "LOOP-B", constants.ProductKindCombo, "WIN11PRO", "LOOP-A")
	f.createProduct(t, "SELF", constants.ProductKindCombo, "SELF")
	f.createProduct(t, "MISSING", constants.ProductKindCombo, "WIN11PRO", "NOPE")
	f.createProduct(t, "EMPTY", constants.ProductKindCombo)
	f.createProduct(t, "MIXED", constants.ProductKindCombo, "WIN11PRO", "M365")
	f.createProduct(t, "WEIRD", "bundle")

	cases := map[string]error{
		"LOOP-A":  ErrCatalogCycle,
		"SELF":    ErrCatalogCycle,
		"MISSING": ErrProductNotFound,
		"EMPTY":   ErrProductInvalid,
		"MIXED":   ErrProductInvalid,
		"WEIRD":   ErrProductInvalid,
		"GHOST":   ErrProductNotFound,
	}
	for code, want := range cases {
		_, err := f.catalog.Resolve(context.Background(), code)
		if !errors.Is(err, want) {
			t.Fatalf("%s want %v got %v", code, want, err)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s should be a configuration error, got %v", code, err)
		}
	}
}

func TestExpandSlots(t *testing.T) {
	got := ExpandSlots([]string{"A", "B"}, 2)
	if !reflect.DeepEqual(got, []string{"A", "B", "A", "B"}) {
		t.Fatalf("unexpected slots: %v", got)
	}
	if got := ExpandSlots([]string{"A"}, 0); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("quantity below one should be treated as one, got %v", got)
	}
}
