package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/licensedesk/internal/activation/getcid"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"golang.org/x/sync/errgroup"
)

type fakeTokenVerifier struct {
	infos map[string]getcid.TokenInfo
	err   error
	calls []string
}

func (f *fakeTokenVerifier) Verify(ctx context.Context, token string) (getcid.TokenInfo, error) {
	f.calls = append(f.calls, token)
	if f.err != nil {
		return getcid.TokenInfo{}, f.err
	}
	info, ok := f.infos[token]
	if !ok {
		return getcid.TokenInfo{}, getcid.ErrTokenRejected
	}
	return info, nil
}

func TestGetcidTokenAddVerifiesBeforeSaving(t *testing.T) {
	f := setupServiceTest(t)
	repo := repository.NewGetcidTokenRepository(f.db)
	verifier := &fakeTokenVerifier{infos: map[string]getcid.TokenInfo{
		"first-token-abc":  {Email: "a@example.com", CountUsed: 3, TotalAvailable: 100},
		"second-token-abc": {Email: "b@example.com", TotalAvailable: 20},
	}}
	svc := NewGetcidTokenService(repo, verifier)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "short"); !errors.Is(err, ErrGetcidTokenInvalid) {
		t.Fatalf("short token want ErrGetcidTokenInvalid got %v", err)
	}
	if _, err := svc.Add(ctx, "unknown-token-abc"); !errors.Is(err, ErrGetcidTokenRejected) {
		t.Fatalf("unverified token want ErrGetcidTokenRejected got %v", err)
	}
	first, err := svc.Add(ctx, "  FIRST-token-ABC ")
	if err != nil {
		t.Fatalf("add first token failed: %v", err)
	}
	if first.Token != "first-token-abc" || first.CountUsed != 3 || first.Priority != 1 || !first.IsActive || first.LastVerifiedAt == nil {
		t.Fatalf("unexpected stored token: %+v", first)
	}
	second, err := svc.Add(ctx, "second-token-abc")
	if err != nil {
		t.Fatalf("add second token failed: %v", err)
	}
	if second.Priority != 2 {
		t.Fatalf("newer token should take priority 2, got %d", second.Priority)
	}
	if len(verifier.calls) != 3 {
		t.Fatalf("verifier should run for every well-formed token, got %v", verifier.calls)
	}

	overview, err := svc.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if overview.Summary.TotalTokens != 2 || overview.Summary.TotalUsed != 3 || overview.Summary.TotalAvailable != 120 || overview.Summary.TotalRemaining != 117 {
		t.Fatalf("unexpected summary: %+v", overview.Summary)
	}
	if overview.Tokens[0].Token != "second-token-abc" {
		t.Fatalf("tokens should be listed by priority, got %s first", overview.Tokens[0].Token)
	}

	noVerifier := NewGetcidTokenService(repo, nil)
	if _, err := noVerifier.Add(ctx, "second-token-abc"); !errors.Is(err, ErrActivationUnavailable) {
		t.Fatalf("missing verifier want ErrActivationUnavailable got %v", err)
	}
}

func TestGetcidTokenUpdate(t *testing.T) {
	f := setupServiceTest(t)
	repo := repository.NewGetcidTokenRepository(f.db)
	svc := NewGetcidTokenService(repo, nil)
	row := &models.GetcidToken{Token: "update-token-abc", TotalAvailable: 10, Priority: 1, IsActive: true}
	if err := repo.Upsert(row); err != nil {
		t.Fatalf("seed token failed: %v", err)
	}

	inactive := false
	priority := 7
	updated, err := svc.Update(row.ID, UpdateGetcidTokenInput{IsActive: &inactive, Priority: &priority})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.IsActive || updated.Priority != 7 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if _, err := svc.Update(row.ID, UpdateGetcidTokenInput{}); !errors.Is(err, ErrGetcidTokenInvalid) {
		t.Fatalf("empty update want ErrGetcidTokenInvalid got %v", err)
	}
	if _, err := svc.Update(9999, UpdateGetcidTokenInput{Priority: &priority}); !errors.Is(err, ErrGetcidTokenNotFound) {
		t.Fatalf("missing token want ErrGetcidTokenNotFound got %v", err)
	}
}

func TestGetcidTokenPoolNeverOverspends(t *testing.T) {
	f := setupFileServiceTest(t, 4)
	repo := repository.NewGetcidTokenRepository(f.db)
	seeds := []models.GetcidToken{
		{Token: "primary-token-abc", TotalAvailable: 3, Priority: 2, IsActive: true},
		{Token: "backup-token-abc", CountUsed: 8, TotalAvailable: 10, Priority: 1, IsActive: true},
	}
	for i := range seeds {
		if err := repo.Upsert(&seeds[i]); err != nil {
			t.Fatalf("seed token failed: %v", err)
		}
	}
	pool := NewGetcidTokenPool(repo)

	const callers = 8
	var mu sync.Mutex
	issued := map[string]int{}
	exhausted := 0
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			token, err := pool.AcquireToken(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrGetcidTokenExhausted) {
				exhausted++
				return nil
			}
			if err != nil {
				return err
			}
			issued[token]++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if issued["primary-token-abc"] != 3 || issued["backup-token-abc"] != 2 {
		t.Fatalf("unexpected token usage: %v", issued)
	}
	if exhausted != callers-5 {
		t.Fatalf("exhausted callers want %d got %d", callers-5, exhausted)
	}

	tokens, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, token := range tokens {
		if token.CountUsed != token.TotalAvailable {
			t.Fatalf("token %s should be fully used without overspend: %+v", token.Token, token)
		}
	}
}
