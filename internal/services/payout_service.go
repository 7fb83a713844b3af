package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	applog "campusmart/internal/log"
	"campusmart/internal/payments"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type PayoutService struct {
	Payouts *repos.PayoutRepo
	Sellers *repos.SellerRepo
	Orders  *repos.OrderRepo
	Gateway Gateway
	Notes   *NotificationService

	FeePercent     decimal.Decimal
	Currency       string
	SummaryTimeout time.Duration

	// reserve serializes the balance check with the payout insert.
	reserve sync.Mutex
}

func NewPayoutService(payouts *repos.PayoutRepo, sellers *repos.SellerRepo, orders *repos.OrderRepo, gw Gateway, notes *NotificationService) *PayoutService {
	return &PayoutService{
		Payouts: payouts, Sellers: sellers, Orders: orders, Gateway: gw, Notes: notes,
		FeePercent:     decimal.NewFromInt(5),
		SummaryTimeout: 5 * time.Second,
	}
}

type BankInput struct {
	BankCode      string `json:"bank_code" validate:"required,numeric,min=3,max=10"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=10,max=10"`
	AccountName   string `json:"account_name" validate:"required,min=2,max=120"`
}

// SetBank registers the seller's account with the gateway as a transfer recipient.
func (s *PayoutService) SetBank(ctx context.Context, userID string, in BankInput) (*domain.Seller, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	rcp, err := s.Gateway.CreateRecipient(ctx, payments.RecipientRequest{
		Name:          strings.TrimSpace(in.AccountName),
		AccountNumber: in.AccountNumber,
		BankCode:      in.BankCode,
		Currency:      s.Currency,
	})
	if err != nil {
		return nil, upstream(err)
	}
	sel.BankCode, sel.AccountNumber = in.BankCode, in.AccountNumber
	sel.AccountName = strings.TrimSpace(in.AccountName)
	if rcp.Details.AccountName != "" {
		sel.AccountName = rcp.Details.AccountName
	}
	sel.RecipientCode = rcp.RecipientCode
	if err := s.Sellers.SetBank(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// Summary computes the seller's balance. It gives up with a 504 after SummaryTimeout.
func (s *PayoutService) Summary(ctx context.Context, userID string) (*domain.PayoutSummary, error) {
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	return WithTimeout(ctx, s.SummaryTimeout, func(ctx context.Context) (*domain.PayoutSummary, error) {
		return s.summary(ctx, sel.ID)
	})
}

func (s *PayoutService) summary(ctx context.Context, sellerID string) (*domain.PayoutSummary, error) {
	earned, err := s.Orders.SellerEarnings(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	paid, inFlight, err := s.Payouts.Totals(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	fee := earned.Mul(s.FeePercent).Div(decimal.NewFromInt(100)).Round(2)
	avail := earned.Sub(fee).Sub(paid).Sub(inFlight)
	if avail.IsNegative() {
		avail = decimal.Zero
	}
	return &domain.PayoutSummary{
		TotalEarned: earned,
		PlatformFee: fee,
		PaidOut:     paid,
		Pending:     inFlight,
		Available:   avail.Round(2),
	}, nil
}

type PayoutInput struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// Request withdraws part of the available balance to the seller's bank account.
func (s *PayoutService) Request(ctx context.Context, userID string, in PayoutInput) (*domain.Payout, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	if sel.RecipientCode == "" {
		return nil, apperr.BadRequest("add your bank details before requesting a payout")
	}
	amount := in.Amount.Round(2)
	p, err := s.reserveFunds(ctx, sel.ID, amount)
	if err != nil {
		return nil, err
	}
	tr, err := s.Gateway.Transfer(ctx, payments.TransferRequest{
		Amount:    payments.ToMinor(amount),
		Recipient: sel.RecipientCode,
		Reason:    "CampusMart payout " + short(p.ID),
		Reference: p.Reference,
		Currency:  s.Currency,
	})
	if err != nil {
		if _, uerr := s.Payouts.SetStatus(ctx, p.Reference, domain.PayoutFailed, "", err.Error()); uerr != nil {
			applog.Logger().Error("payout.status.failed", "reference", p.Reference, "error", uerr)
		}
		return nil, upstream(err)
	}
	status := domain.PayoutProcessing
	if tr.Status == "success" {
		status = domain.PayoutPaid
	}
	if _, err := s.Payouts.SetStatus(ctx, p.Reference, status, tr.TransferCode, ""); err != nil {
		return nil, err
	}
	applog.Logger().Info("payout.requested", "seller_id", sel.ID, "reference", p.Reference, "amount", amount.String())
	return s.Payouts.ByReference(ctx, p.Reference)
}

// reserveFunds records a pending payout if the balance covers it. A pending payout
// counts against the balance, so concurrent requests cannot overdraw it.
func (s *PayoutService) reserveFunds(ctx context.Context, sellerID string, amount decimal.Decimal) (*domain.Payout, error) {
	s.reserve.Lock()
	defer s.reserve.Unlock()
	sum, err := s.summary(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(sum.Available) {
		return nil, apperr.ErrInsufficientFunds.WithDetails("available " + sum.Available.StringFixed(2))
	}
	now := domain.Now()
	p := &domain.Payout{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		Amount:    amount,
		Status:    domain.PayoutPending,
		Reference: "po_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Payouts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PayoutService) Mine(ctx context.Context, userID string, page domain.Page) ([]domain.Payout, error) {
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	return s.Payouts.ListBySeller(ctx, sel.ID, page)
}

func (s *PayoutService) All(ctx context.Context, status string, page domain.Page) ([]domain.Payout, error) {
	return s.Payouts.ListAll(ctx, status, page)
}

// HandleTransfer settles a payout from a transfer webhook.
func (s *PayoutService) HandleTransfer(ctx context.Context, event string, data *payments.WebhookData) error {
	status := domain.PayoutFailed
	if event == payments.EventTransferSuccess {
		status = domain.PayoutPaid
	}
	reason := data.Reason
	if status == domain.PayoutFailed && reason == "" {
		reason = strings.TrimPrefix(event, "transfer.")
	}
	ok, err := s.Payouts.SetStatus(ctx, data.Reference, status, data.TransferCode, reason)
	if err != nil || !ok {
		return err
	}
	p, err := s.Payouts.ByReference(ctx, data.Reference)
	if err != nil {
		return err
	}
	sel, err := s.Sellers.ByID(ctx, p.SellerID)
	if err != nil {
		return err
	}
	title := "Payout sent"
	if status == domain.PayoutFailed {
		title = "Payout failed"
	}
	s.Notes.Notify(ctx, sel.UserID, NotifyPayout, title, p.Amount.StringFixed(2)+" "+s.Currency, "/seller/payouts")
	return nil
}
