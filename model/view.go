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

package model

var transactionStatusLabels = map[TransactionStatus]string{
	StatusPending:          "Pendente",
	StatusAwaitingPayment:  "Aguardando pagamento",
	StatusPaymentConfirmed: "Pagamento confirmado",
	StatusReleasingCrypto:  "Liberando cripto",
	StatusCompleted:        "Concluída",
	StatusCancelled:        "Cancelada",
	StatusDisputed:         "Em disputa",
}

var escrowStatusLabels = map[EscrowStatus]string{
	EscrowLocked:   "Bloqueado",
	EscrowReleased: "Liberado",
	EscrowRefunded: "Reembolsado",
}

// Label returns the display label for the status.
func (s TransactionStatus) Label() string {
	if label, ok := transactionStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display label for the escrow status.
func (s EscrowStatus) Label() string {
	if label, ok := escrowStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// EscrowView is the escrow sub-object of the transaction read model.
type EscrowView struct {
	Escrow
	StatusLabel string `json:"status_label"`
}

// TransactionView is the read model served to UI clients.
type TransactionView struct {
	Transaction
	StatusLabel string      `json:"status_label"`
	Escrow      *EscrowView `json:"escrow,omitempty"`
}

// NewTransactionView builds the read model from a transaction and its escrow, if any.
func NewTransactionView(txn Transaction, escrow *Escrow) *TransactionView {
	view := &TransactionView{
		Transaction: txn,
		StatusLabel: txn.Status.Label(),
	}
	if escrow != nil {
		view.Escrow = &EscrowView{Escrow: *escrow, StatusLabel: escrow.Status.Label()}
	}
	return view
}
