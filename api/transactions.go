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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/blnkfinance/tradedesk/api/model"
	"github.com/blnkfinance/tradedesk/model"
)

// CreateTransaction opens a PENDING trade between a buyer and a seller.
//
// Responses:
// - 400 Bad Request: invalid body.
// - 201 Created: the stored transaction.
func (a Api) CreateTransaction(c *gin.Context) {
	var newTransaction model2.CreateTransaction
	if err := c.ShouldBindJSON(&newTransaction); err != nil {
		invalidInput(c, err)
		return
	}
	if err := newTransaction.ValidateCreateTransaction(); err != nil {
		invalidInput(c, err)
		return
	}

	txn, err := a.desk.CreateTransaction(c.Request.Context(), newTransaction.ToNewTransaction())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// GetTransaction returns the read model: the transaction with its status
// label and escrow.
func (a Api) GetTransaction(c *gin.Context) {
	view, err := a.desk.GetTransactionView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// TransitionTransaction moves a transaction to target_status on behalf of actor_id.
//
// Responses:
// - 200 OK: the updated transaction.
// - 400 Bad Request: invalid body or unknown status.
// - 401 Unauthorized: the actor is not a party to the trade.
// - 404 Not Found: no such transaction.
// - 409 Conflict: the move is not allowed from the current status.
func (a Api) TransitionTransaction(c *gin.Context) {
	var req model2.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateTransitionRequest(); err != nil {
		invalidInput(c, err)
		return
	}

	a.transition(c, req.TargetStatus, req.ActorID)
}

func (a Api) CancelTransaction(c *gin.Context) {
	a.actorTransition(c, model.StatusCancelled)
}

func (a Api) DisputeTransaction(c *gin.Context) {
	a.actorTransition(c, model.StatusDisputed)
}

func (a Api) actorTransition(c *gin.Context, target model.TransactionStatus) {
	var req model2.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateActorRequest(); err != nil {
		invalidInput(c, err)
		return
	}

	a.transition(c, target, req.ActorID)
}

func (a Api) transition(c *gin.Context, target model.TransactionStatus, actorID string) {
	txn, err := a.desk.ApplyTransition(c.Request.Context(), c.Param("id"), target, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewTransactionView(*txn, nil))
}

// RequestPixPayment registers the buyer's PIX charge and, for a PENDING trade,
// locks the escrow.
func (a Api) RequestPixPayment(c *gin.Context) {
	var req model2.PixPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidatePixPaymentRequest(); err != nil {
		invalidInput(c, err)
		return
	}

	payment, err := a.desk.RequestPixPayment(c.Request.Context(), c.Param("id"), req.PixKey, req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (a Api) ResolveDispute(c *gin.Context) {
	var req model2.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateResolveDisputeRequest(); err != nil {
		invalidInput(c, err)
		return
	}

	txn, err := a.desk.ResolveDispute(c.Request.Context(), c.Param("id"), req.Outcome, req.ArbiterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewTransactionView(*txn, nil))
}
