/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tradedesk

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"

	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

// transitions lists the targets reachable from each status. DISPUTED has no
// entry: it is left only through ResolveDispute.
var transitions = map[model.TransactionStatus][]model.TransactionStatus{
	model.StatusPending:          {model.StatusAwaitingPayment, model.StatusCancelled},
	model.StatusAwaitingPayment:  {model.StatusPaymentConfirmed, model.StatusCancelled, model.StatusDisputed},
	model.StatusPaymentConfirmed: {model.StatusReleasingCrypto, model.StatusDisputed},
	model.StatusReleasingCrypto:  {model.StatusCompleted, model.StatusDisputed},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to model.TransactionStatus) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves a transaction to target on behalf of actorID and
// applies the matching escrow change in the same unit of work. The counterparty
// is notified once the change is committed.
func (t *TradeDesk) ApplyTransition(ctx context.Context, transactionID string, target model.TransactionStatus, actorID string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ApplyTransition")
	defer span.End()

	var (
		updated       *model.Transaction
		notifications []model.Notification
	)
	err := t.datasource.WithTx(ctx, func(ctx context.Context, tx database.Store) error {
		var err error
		updated, notifications, err = t.applyTransitionTx(ctx, tx, transactionID, target, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.afterCommit(ctx, []string{transactionID}, notifications)
	return updated, nil
}

// applyTransitionTx is ApplyTransition bound to an open unit of work. Every
// rule is checked before the first write. The notifications it returns must
// only be emitted after the surrounding unit of work commits.
func (t *TradeDesk) applyTransitionTx(ctx context.Context, tx database.Store, transactionID string, target model.TransactionStatus, actorID string) (*model.Transaction, []model.Notification, error) {
	if !target.Valid() {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidInput, "unknown transaction status "+string(target), nil)
	}

	txn, err := tx.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}

	if actorID != model.SystemPrincipal && !txn.IsParty(actorID) {
		return nil, nil, apierror.Unauthorized("actor is not a party to the transaction")
	}

	if !CanTransition(txn.Status, target) {
		return nil, nil, apierror.InvalidStateTransition(string(txn.Status), string(target))
	}

	notifications, err := t.moveTransaction(ctx, tx, txn, target, actorID)
	if err != nil {
		return nil, nil, err
	}
	return txn, notifications, nil
}

// moveTransaction writes an already authorised status change together with
// its escrow effect and updates txn in place.
func (t *TradeDesk) moveTransaction(ctx context.Context, tx database.Store, txn *model.Transaction, target model.TransactionStatus, actorID string) ([]model.Notification, error) {
	escrow, err := tx.GetEscrowByTransaction(ctx, txn.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := checkEscrowFor(txn, escrow, target); err != nil {
		return nil, err
	}

	now := t.now()
	var completedAt *time.Time
	if target == model.StatusCompleted {
		completedAt = ptr.Time(now)
	}

	from := txn.Status
	if err := tx.UpdateTransactionStatus(ctx, txn.TransactionID, from, target, completedAt, now); err != nil {
		return nil, err
	}

	if err := coupleEscrow(ctx, tx, txn, escrow, target, now); err != nil {
		return nil, err
	}

	txn.Status = target
	txn.UpdatedAt = now
	txn.CompletedAt = completedAt

	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.TransactionID,
		"from":           from,
		"to":             target,
		"actor":          actorID,
	}).Info("transaction status changed")

	return transitionNotifications(txn, from, actorID, now), nil
}

// ResolveDispute closes a DISPUTED transaction as COMPLETED, which releases the
// escrow to the buyer, or as CANCELLED, which refunds it to the seller. Only
// the arbiter principal may resolve disputes; both parties are notified.
func (t *TradeDesk) ResolveDispute(ctx context.Context, transactionID string, outcome model.TransactionStatus, arbiterID string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ResolveDispute")
	defer span.End()

	if outcome != model.StatusCompleted && outcome != model.StatusCancelled {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "dispute outcome must be COMPLETED or CANCELLED", nil)
	}
	if arbiterID != model.ArbiterPrincipal {
		return nil, apierror.Unauthorized("only the arbiter can resolve disputes")
	}

	var (
		updated       *model.Transaction
		notifications []model.Notification
	)
	err := t.datasource.WithTx(ctx, func(ctx context.Context, tx database.Store) error {
		txn, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.Status != model.StatusDisputed {
			return apierror.InvalidStateTransition(string(txn.Status), string(outcome))
		}

		notifications, err = t.moveTransaction(ctx, tx, txn, outcome, arbiterID)
		if err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.afterCommit(ctx, []string{transactionID}, notifications)
	return updated, nil
}
