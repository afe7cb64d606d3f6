package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

func TestCustomerQueryBasics(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	q, err := repos.Queries.AddCustomerQuery(ctx, &core.CustomerQuery{
		Question:     "do you ship internationally?",
		ContactName:  "Alex",
		ContactEmail: "alex@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to add customer query: %v", err)
	}
	if q.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if q.Status != core.QueryPending {
		t.Fatalf("Expected pending status, got %s", q.Status)
	}

	listed, err := repos.Queries.ListCustomerQueries(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list queries: %v", err)
	}
	if len(listed) != 1 || listed[0].Question != "do you ship internationally?" {
		t.Fatalf("Unexpected listing: %v", listed)
	}
}

func TestCustomerQueryStatusFilter(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	first, err := repos.Queries.AddCustomerQuery(ctx, &core.CustomerQuery{Question: "first"})
	if err != nil {
		t.Fatalf("Failed to add customer query: %v", err)
	}
	if _, err := repos.Queries.AddCustomerQuery(ctx, &core.CustomerQuery{Question: "second"}); err != nil {
		t.Fatalf("Failed to add customer query: %v", err)
	}

	if err := repos.Queries.SetCustomerQueryStatus(ctx, first.Id, core.QueryResponded); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}

	pending, err := repos.Queries.ListCustomerQueries(ctx, core.QueryPending)
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Question != "second" {
		t.Fatalf("Unexpected pending listing: %v", pending)
	}

	responded, err := repos.Queries.ListCustomerQueries(ctx, core.QueryResponded)
	if err != nil {
		t.Fatalf("Failed to list responded: %v", err)
	}
	if len(responded) != 1 || responded[0].Id != first.Id {
		t.Fatalf("Unexpected responded listing: %v", responded)
	}
}

func TestCustomerQueryErrors(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	if _, err := repos.Queries.AddCustomerQuery(ctx, &core.CustomerQuery{Question: "   "}); !errors.Is(err, core.ErrInvalidCustomerQuery) {
		t.Fatalf("Expected ErrInvalidCustomerQuery, got %v", err)
	}

	if err := repos.Queries.SetCustomerQueryStatus(ctx, 4242, core.QueryArchived); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := repos.Queries.SetCustomerQueryStatus(ctx, 1, core.QueryStatus(99)); !errors.Is(err, core.ErrInvalidQueryStatus) {
		t.Fatalf("Expected ErrInvalidQueryStatus, got %v", err)
	}
}
