package uowmock

import (
	"context"
	"errors"
	"testing"

	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/uow"
	"credlio-backend/internal/testutil/loanmock"
)

func TestUoW_DefaultsUnimplemented(t *testing.T) {
	m := New()
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinTx default err = %v", err)
	}
	if err := m.WithinLoanTx(context.Background(), "L", func(uow.Repos, *loan.Loan) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinLoanTx default err = %v", err)
	}
}

func TestUoW_FluentSettersAndReset(t *testing.T) {
	called := false
	m := New().WithWithinTx(func(ctx context.Context, fn func(uow.Repos) error) error {
		called = true
		return fn(uow.Repos{})
	})
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); err != nil || !called {
		t.Fatalf("WithinTx = %v, called=%v", err, called)
	}
	m.Reset()
	if m.WithinTxFn != nil || m.WithinLoanTxFn != nil {
		t.Fatal("Reset should clear functions")
	}
}

func TestPassthrough_LocksLoan(t *testing.T) {
	want := &loan.Loan{LoanID: "L-1"}
	repos := uow.Repos{Loans: &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(_ context.Context, id string) (*loan.Loan, error) {
			if id != "L-1" {
				return nil, loan.ErrNotFound
			}
			return want, nil
		},
	}}
	m := Passthrough(repos)

	var got *loan.Loan
	if err := m.WithinLoanTx(context.Background(), "L-1", func(_ uow.Repos, l *loan.Loan) error {
		got = l
		return nil
	}); err != nil {
		t.Fatalf("WithinLoanTx: %v", err)
	}
	if got != want {
		t.Fatal("callback did not receive locked loan")
	}
	if err := m.WithinLoanTx(context.Background(), "nope", func(uow.Repos, *loan.Loan) error { return nil }); !errors.Is(err, loan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
