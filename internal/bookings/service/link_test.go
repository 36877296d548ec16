package service

import (
	"context"
	"strings"
	"testing"

	"marea/internal/bookings/validator"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
)

func newLinkService(links *fakeLinkRepo) LinkService {
	cfg := testConfig()
	return NewLinkService(links, validator.NewBookingValidator(cfg.Log), cfg)
}

func TestLinkCreate(t *testing.T) {
	links := newFakeLinkRepo()
	svc := newLinkService(links)

	link, err := svc.Create(context.Background(), &model.LinkRequest{PartnerID: "beach-club", SingleUse: true}, "ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if link.Token == "" {
		t.Error("expected a generated token")
	}
	if !link.Active {
		t.Error("new links must start active")
	}
	if !link.SingleUse || link.Used {
		t.Errorf("unexpected link state: %+v", link)
	}
	if link.CreatedBy != "ana" {
		t.Errorf("expected creator ana, got %q", link.CreatedBy)
	}
	if _, ok := links.byToken[link.Token]; !ok {
		t.Error("link not persisted")
	}
}

func TestLinkVisit(t *testing.T) {
	seed := func(active, used bool) (*fakeLinkRepo, string) {
		links := newFakeLinkRepo()
		token := "tok_" + strings.Repeat("f", 16)
		links.byToken[token] = &model.BookingLink{
			ID:        strings.Repeat("c", 24),
			Token:     token,
			Active:    active,
			SingleUse: true,
			Used:      used,
		}
		return links, token
	}

	t.Run("counts the visit", func(t *testing.T) {
		links, token := seed(true, false)
		svc := newLinkService(links)

		link, err := svc.Visit(context.Background(), token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if link.Visits != 1 {
			t.Errorf("expected 1 visit, got %d", link.Visits)
		}
	})

	t.Run("rejects deactivated links", func(t *testing.T) {
		links, token := seed(false, false)
		svc := newLinkService(links)

		_, err := svc.Visit(context.Background(), token)
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("rejects spent single-use links", func(t *testing.T) {
		links, token := seed(true, true)
		svc := newLinkService(links)

		_, err := svc.Visit(context.Background(), token)
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("unknown tokens are not found", func(t *testing.T) {
		svc := newLinkService(newFakeLinkRepo())
		_, err := svc.Visit(context.Background(), "tok_missing")
		assertCode(t, err, apperrors.CodeNotFound)
	})
}
