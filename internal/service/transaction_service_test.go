package service

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

type TransactionServiceTestSuite struct {
	ledgerSuite
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}

func (s *TransactionServiceTestSuite) transfer(sourceID, destinationID int64, value string) (*TransferResult, error) {
	return s.transactions.Transfer(s.ctx, &TransferRequest{
		SourceAccountID:      sourceID,
		DestinationAccountID: destinationID,
		Amount:               amount(value),
	})
}

// TestLedgerScenario walks one account pair through every operation.
func (s *TransactionServiceTestSuite) TestLedgerScenario() {
	a1 := s.open("001", "111", "100.00")
	a2 := s.open("002", "222", "50.00")

	account, err := s.transactions.Deposit(s.ctx, a1.ID, amount("25.50"))
	s.Require().NoError(err)
	s.Equal("125.50", account.Balance.StringFixed(2))

	account, err = s.transactions.Withdraw(s.ctx, a1.ID, amount("0.50"))
	s.Require().NoError(err)
	s.Equal("125.00", account.Balance.StringFixed(2))

	result, err := s.transfer(a1.ID, a2.ID, "25.00")
	s.Require().NoError(err)
	s.Equal("100.00", result.Source.Balance.StringFixed(2))
	s.Equal("75.00", result.Destination.Balance.StringFixed(2))

	_, err = s.transactions.Withdraw(s.ctx, a2.ID, amount("75.01"))
	s.ErrorIs(err, errors.ErrInsufficientFunds)
	s.Equal("75.00", s.balanceOf(a2.ID))

	_, err = s.accounts.CloseAccount(s.ctx, a1.ID)
	s.Require().NoError(err)

	_, err = s.transactions.Deposit(s.ctx, a1.ID, amount("1.00"))
	s.ErrorIs(err, errors.ErrAccountInactive)
	s.Equal("100.00", s.balanceOf(a1.ID))
}

func (s *TransactionServiceTestSuite) TestOpenMoveCloseScenario() {
	a1 := s.open("001", "111", "100.00")

	account, err := s.transactions.Deposit(s.ctx, a1.ID, amount("50.00"))
	s.Require().NoError(err)
	s.Equal("150.00", account.Balance.StringFixed(2))

	_, err = s.transactions.Withdraw(s.ctx, a1.ID, amount("200.00"))
	s.ErrorIs(err, errors.ErrInsufficientFunds)
	s.Equal("150.00", s.balanceOf(a1.ID))

	a2 := s.open("002", "222", "0.00")

	result, err := s.transfer(a1.ID, a2.ID, "150.00")
	s.Require().NoError(err)
	s.Equal("0.00", result.Source.Balance.StringFixed(2))
	s.Equal("150.00", s.balanceOf(a2.ID))

	_, err = s.accounts.CloseAccount(s.ctx, a1.ID)
	s.Require().NoError(err)

	_, err = s.transactions.Deposit(s.ctx, a1.ID, amount("1.00"))
	s.ErrorIs(err, errors.ErrAccountInactive)
}

func (s *TransactionServiceTestSuite) TestDepositWithdrawRoundTrip() {
	account := s.open("001", "111", "10.00")

	_, err := s.transactions.Deposit(s.ctx, account.ID, amount("33.33"))
	s.Require().NoError(err)
	_, err = s.transactions.Withdraw(s.ctx, account.ID, amount("33.33"))
	s.Require().NoError(err)

	s.Equal("10.00", s.balanceOf(account.ID))
}

func (s *TransactionServiceTestSuite) TestWithdrawEntireBalance() {
	account := s.open("001", "111", "10.00")

	updated, err := s.transactions.Withdraw(s.ctx, account.ID, amount("10.00"))
	s.Require().NoError(err)
	s.True(updated.Balance.IsZero())
}

func (s *TransactionServiceTestSuite) TestInvalidAmounts() {
	account := s.open("001", "111", "10.00")
	other := s.open("002", "222", "10.00")

	for _, value := range []string{"0", "0.00", "-1.00", "0.001"} {
		_, err := s.transactions.Deposit(s.ctx, account.ID, amount(value))
		s.ErrorIs(err, errors.ErrInvalidAmount, value)

		_, err = s.transactions.Withdraw(s.ctx, account.ID, amount(value))
		s.ErrorIs(err, errors.ErrInvalidAmount, value)

		_, err = s.transfer(account.ID, other.ID, value)
		s.ErrorIs(err, errors.ErrInvalidAmount, value)
	}

	s.Equal("10.00", s.balanceOf(account.ID))
	s.Equal("10.00", s.balanceOf(other.ID))
}

func (s *TransactionServiceTestSuite) TestDepositUpToMaxBalance() {
	account := s.open("001", "111", "9999999999999.00")

	updated, err := s.transactions.Deposit(s.ctx, account.ID, amount("0.99"))
	s.Require().NoError(err)
	s.True(updated.Balance.Equal(domain.MaxBalance))

	_, err = s.transactions.Deposit(s.ctx, account.ID, amount("0.01"))
	s.ErrorIs(err, errors.ErrBalanceLimitExceeded)
	s.ErrorIs(err, errors.ErrInvalidAmount)
	s.Equal("9999999999999.99", s.balanceOf(account.ID))
}

func (s *TransactionServiceTestSuite) TestOutOfRangeAmountsAreRejected() {
	account := s.open("001", "111", "10.00")
	payee := s.open("002", "222", "10.00")

	for _, value := range []string{"10000000000000", "1e20000000", "1e-20000000"} {
		_, err := s.transactions.Deposit(s.ctx, account.ID, amount(value))
		s.ErrorIs(err, errors.ErrInvalidAmount, value)

		_, err = s.transactions.Withdraw(s.ctx, account.ID, amount(value))
		s.ErrorIs(err, errors.ErrInvalidAmount, value)

		_, err = s.transfer(account.ID, payee.ID, value)
		s.ErrorIs(err, errors.ErrInvalidAmount, value)
	}

	s.Equal("10.00", s.balanceOf(account.ID))
	s.Equal("10.00", s.balanceOf(payee.ID))
}

func (s *TransactionServiceTestSuite) TestTransferPastMaxBalanceLeavesBothUnchanged() {
	source := s.open("001", "111", "100.00")
	destination := s.open("002", "222", "9999999999950.00")

	_, err := s.transfer(source.ID, destination.ID, "50.01")
	s.ErrorIs(err, errors.ErrBalanceLimitExceeded)
	s.Equal("100.00", s.balanceOf(source.ID))
	s.Equal("9999999999950.00", s.balanceOf(destination.ID))

	result, err := s.transfer(source.ID, destination.ID, "49.99")
	s.Require().NoError(err)
	s.Equal("50.01", result.Source.Balance.StringFixed(2))
	s.Equal("9999999999999.99", result.Destination.Balance.StringFixed(2))
}

func (s *TransactionServiceTestSuite) TestSelfTransferAtMaxBalance() {
	account := s.open("001", "111", "9999999999999.99")

	result, err := s.transfer(account.ID, account.ID, "100.00")
	s.Require().NoError(err)
	s.Equal("9999999999999.99", result.Source.Balance.StringFixed(2))
	s.Equal("9999999999999.99", s.balanceOf(account.ID))
}

func (s *TransactionServiceTestSuite) TestMovementsOnMissingAccount() {
	_, err := s.transactions.Deposit(s.ctx, 77, amount("1.00"))
	s.ErrorIs(err, errors.ErrAccountNotFound)

	_, err = s.transactions.Withdraw(s.ctx, 77, amount("1.00"))
	s.ErrorIs(err, errors.ErrAccountNotFound)
}

func (s *TransactionServiceTestSuite) TestClosedAccountRejectsMovements() {
	closed := s.open("001", "111", "100.00")
	open := s.open("002", "222", "100.00")
	_, err := s.accounts.CloseAccount(s.ctx, closed.ID)
	s.Require().NoError(err)

	_, err = s.transactions.Withdraw(s.ctx, closed.ID, amount("1.00"))
	s.ErrorIs(err, errors.ErrAccountInactive)

	_, err = s.transfer(closed.ID, open.ID, "1.00")
	s.Require().ErrorIs(err, errors.ErrAccountInactive)
	s.Equal(errors.RoleSource, errors.AsAppError(err).Role)

	_, err = s.transfer(open.ID, closed.ID, "1.00")
	s.Require().ErrorIs(err, errors.ErrAccountInactive)
	s.Equal(errors.RoleDestination, errors.AsAppError(err).Role)

	s.Equal("100.00", s.balanceOf(closed.ID))
	s.Equal("100.00", s.balanceOf(open.ID))
}

func (s *TransactionServiceTestSuite) TestTransferConservesTotal() {
	a := s.open("001", "111", "80.10")
	b := s.open("002", "222", "19.90")

	for _, step := range []struct {
		from, to int64
		value    string
	}{
		{a.ID, b.ID, "0.10"},
		{b.ID, a.ID, "20.00"},
		{a.ID, b.ID, "99.99"},
		{b.ID, a.ID, "500.00"},
	} {
		_, _ = s.transfer(step.from, step.to, step.value)

		total := amount(s.balanceOf(a.ID)).Add(amount(s.balanceOf(b.ID)))
		s.Equal("100.00", total.StringFixed(2))
	}
}

func (s *TransactionServiceTestSuite) TestTransferInsufficientFundsLeavesBothUnchanged() {
	a := s.open("001", "111", "10.00")
	b := s.open("002", "222", "0.00")

	_, err := s.transfer(a.ID, b.ID, "10.01")
	s.ErrorIs(err, errors.ErrInsufficientFunds)

	s.Equal("10.00", s.balanceOf(a.ID))
	s.Equal("0.00", s.balanceOf(b.ID))
}

// TestTransferValidationOrder checks that the first failing rule wins.
func (s *TransactionServiceTestSuite) TestTransferValidationOrder() {
	poorClosed := s.open("001", "111", "0.00")
	richClosed := s.open("002", "222", "100.00")
	active := s.open("003", "333", "0.00")
	payee := s.open("004", "444", "0.00")
	_, err := s.accounts.CloseAccount(s.ctx, poorClosed.ID)
	s.Require().NoError(err)
	_, err = s.accounts.CloseAccount(s.ctx, richClosed.ID)
	s.Require().NoError(err)

	tests := []struct {
		name        string
		source      int64
		destination int64
		value       string
		code        errors.ErrorCode
		role        errors.Role
	}{
		{"amount before existence", 900, 901, "0.00", errors.InvalidAmount, ""},
		{"source missing before destination missing", 900, 901, "1.00", errors.AccountNotFound, errors.RoleSource},
		{"source missing with lower destination id", 900, active.ID, "1.00", errors.AccountNotFound, errors.RoleSource},
		{"destination missing before source inactive", poorClosed.ID, 901, "1.00", errors.AccountNotFound, errors.RoleDestination},
		{"source inactive before destination inactive", poorClosed.ID, richClosed.ID, "1.00", errors.AccountInactive, errors.RoleSource},
		{"destination inactive before funds", active.ID, richClosed.ID, "1.00", errors.AccountInactive, errors.RoleDestination},
		{"funds last", active.ID, payee.ID, "1.00", errors.InsufficientFunds, ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.transfer(tt.source, tt.destination, tt.value)
			s.Require().Error(err)

			appErr := errors.AsAppError(err)
			s.Equal(tt.code, appErr.Code)
			s.Equal(tt.role, appErr.Role)
		})
	}
}

func (s *TransactionServiceTestSuite) TestSelfTransferIsNoOp() {
	account := s.open("001", "111", "40.00")

	result, err := s.transfer(account.ID, account.ID, "15.00")
	s.Require().NoError(err)
	s.Equal("40.00", result.Source.Balance.StringFixed(2))
	s.Same(result.Source, result.Destination)
	s.Equal("40.00", s.balanceOf(account.ID))

	_, err = s.transfer(account.ID, account.ID, "40.01")
	s.ErrorIs(err, errors.ErrInsufficientFunds)

	_, err = s.transfer(555, 555, "1.00")
	s.Require().ErrorIs(err, errors.ErrAccountNotFound)
	s.Equal(errors.RoleSource, errors.AsAppError(err).Role)
}

func (s *TransactionServiceTestSuite) TestConcurrentDepositsAreSerialised() {
	const n = 50
	account := s.open("001", "111", "0.00")

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := s.transactions.Deposit(s.ctx, account.ID, amount("10.00"))
			return err
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal("500.00", s.balanceOf(account.ID))
}

func (s *TransactionServiceTestSuite) TestConcurrentWithdrawalsNeverOverdraw() {
	const n = 30
	account := s.open("001", "111", "100.00")

	var g errgroup.Group
	results := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = s.transactions.Withdraw(s.ctx, account.ID, amount("7.00"))
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, errors.ErrInsufficientFunds)
	}
	s.Equal(14, succeeded)
	s.Equal("2.00", s.balanceOf(account.ID))
}

func (s *TransactionServiceTestSuite) TestOppositeTransfersDoNotDeadlock() {
	const n = 40
	a := s.open("001", "111", "1000.00")
	b := s.open("002", "222", "1000.00")

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := s.transfer(a.ID, b.ID, "3.00")
			return err
		})
		g.Go(func() error {
			_, err := s.transfer(b.ID, a.ID, "1.00")
			return err
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal("920.00", s.balanceOf(a.ID))
	s.Equal("1080.00", s.balanceOf(b.ID))
}

func (s *TransactionServiceTestSuite) TestInfrastructureErrorsPropagate() {
	svc := NewTransactionService(&failingStore{err: errStoreDown}, discardLogger())

	_, err := svc.Deposit(s.ctx, 1, amount("1.00"))
	s.ErrorIs(err, errStoreDown)
	s.False(errors.IsBusiness(err))

	_, err = svc.Withdraw(s.ctx, 1, amount("1.00"))
	s.ErrorIs(err, errStoreDown)

	_, err = svc.Transfer(s.ctx, &TransferRequest{SourceAccountID: 1, DestinationAccountID: 2, Amount: amount("1.00")})
	s.ErrorIs(err, errStoreDown)

	_, err = svc.Transfer(s.ctx, &TransferRequest{SourceAccountID: 1, DestinationAccountID: 1, Amount: amount("1.00")})
	s.ErrorIs(err, errStoreDown)
}
