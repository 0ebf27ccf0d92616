package service

import (
	"context"
	"errors"
	"testing"

	"github.com/licensedesk/internal/constants"
)

func TestLicenseKeyImport(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.createProduct(t, "COMBO-A", constants.ProductKindCombo, "WIN11PRO")
	ctx := context.Background()

	result, err := f.keys.Import(ctx, ImportInput{
		ProductCode: "WIN11PRO",
		Keys:        []string{" K-1 ", "K-2", "K-1", ""},
		Content:     "K-3\r\nK-2\n\n",
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Total != 3 || result.Created != 3 || result.Skipped != 0 || result.BatchNo == "" {
		t.Fatalf("unexpected import result: %+v", result)
	}

	again, err := f.keys.Import(ctx, ImportInput{ProductCode: "WIN11PRO", Keys: []string{"K-3", "K-4"}, BatchNo: "B2"})
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if again.Created != 1 || again.Skipped != 1 || again.BatchNo != "B2" {
		t.Fatalf("existing keys should be skipped: %+v", again)
	}

	stats, err := f.keys.Stats(ctx, "WIN11PRO")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 4 || stats.Available != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := f.keys.Import(ctx, ImportInput{ProductCode: "COMBO-A", Keys: []string{"X"}}); !errors.Is(err, ErrLicenseKeyImportInvalid) {
		t.Fatalf("combo products hold no keys, got %v", err)
	}
	if _, err := f.keys.Import(ctx, ImportInput{ProductCode: "GHOST", Keys: []string{"X"}}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := f.keys.Import(ctx, ImportInput{ProductCode: "WIN11PRO", Content: " \n "}); !errors.Is(err, ErrLicenseKeyImportInvalid) {
		t.Fatalf("empty import should be rejected, got %v", err)
	}
}
