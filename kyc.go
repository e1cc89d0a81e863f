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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"

	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

// ComputeKYCLevel applies the level rule to the complete set of approved
// document types. The rules are evaluated top-down and the first match wins:
//
//	RG + PROOF_OF_ADDRESS + SELFIE            ADVANCED
//	RG + PROOF_OF_ADDRESS                     INTERMEDIATE
//	national ID recorded, no approved docs    BASIC
//
// ok is false when no rule matches and the level stays as it is.
func ComputeKYCLevel(approved []model.KYCDocumentType, hasNationalID bool) (level model.KYCLevel, ok bool) {
	has := make(map[model.KYCDocumentType]bool, len(approved))
	for _, docType := range approved {
		has[docType] = true
	}

	switch {
	case has[model.DocumentRG] && has[model.DocumentProofOfAddress] && has[model.DocumentSelfie]:
		return model.KYCLevelAdvanced, true
	case has[model.DocumentRG] && has[model.DocumentProofOfAddress]:
		return model.KYCLevelIntermediate, true
	case hasNationalID && len(approved) == 0:
		return model.KYCLevelBasic, true
	default:
		return "", false
	}
}

// apply records the review outcome on the document. Approving an already
// approved document is a no-op.
func (k KycWebhook) apply(ctx context.Context, t *TradeDesk, tx database.Store, out *effectResult) error {
	doc, err := tx.GetKYCDocument(ctx, k.DocumentID)
	if err != nil {
		return err
	}
	if doc.UserID != k.UserID {
		return apierror.InvalidPayload("document does not belong to user", fmt.Sprintf("document %s belongs to %s, not %s", doc.DocumentID, doc.UserID, k.UserID))
	}
	if doc.Status == model.KYCDocumentApproved && k.Status == model.KYCDocumentApproved {
		return nil
	}
	if doc.Status == k.Status && doc.ReviewNotes == k.ReviewNotes && doc.ReviewedBy == k.ReviewedBy {
		logrus.WithFields(logrus.Fields{
			"document_id": doc.DocumentID,
			"status":      doc.Status,
		}).Info("kyc review already applied, ignoring webhook")
		return nil
	}

	now := t.now()
	doc.Status = k.Status
	doc.ReviewNotes = k.ReviewNotes
	doc.ReviewedBy = k.ReviewedBy
	doc.UpdatedAt = now
	if k.Status != model.KYCDocumentPending {
		doc.ReviewedAt = ptr.Time(now)
	}
	if err := tx.UpdateKYCDocument(ctx, doc); err != nil {
		return err
	}

	switch k.Status {
	case model.KYCDocumentApproved:
		notification, err := t.upgradeKYCLevel(ctx, tx, doc.UserID)
		if err != nil {
			return err
		}
		if notification != nil {
			out.touched("", *notification)
		}
	case model.KYCDocumentRejected:
		message := fmt.Sprintf("Seu documento %s foi rejeitado.", documentLabel(doc.DocumentType))
		if k.ReviewNotes != "" {
			message += " Motivo: " + k.ReviewNotes
		}
		out.touched("", newNotification(doc.UserID, model.NotificationKYC, "Documento rejeitado", message, map[string]interface{}{
			"documentId":   doc.DocumentID,
			"documentType": string(doc.DocumentType),
			"reviewNotes":  k.ReviewNotes,
		}, now))
	}
	return nil
}

// upgradeKYCLevel recomputes the user's level and stores it only when it is
// strictly higher than the current one.
func (t *TradeDesk) upgradeKYCLevel(ctx context.Context, tx database.Store, userID string) (*model.Notification, error) {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	approved, err := tx.GetApprovedDocumentTypes(ctx, userID)
	if err != nil {
		return nil, err
	}

	level, ok := ComputeKYCLevel(approved, user.NationalID != "")
	if !ok || level.Rank() <= user.KYCLevel.Rank() {
		return nil, nil
	}

	if err := tx.UpdateUserKYCLevel(ctx, userID, level); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    user.KYCLevel,
		"to":      level,
	}).Info("kyc level upgraded")

	n := newNotification(userID, model.NotificationKYC, "Nível de verificação atualizado",
		fmt.Sprintf("Sua conta agora está no nível %s.", level), map[string]interface{}{
			"previousLevel": string(user.KYCLevel),
			"level":         string(level),
		}, t.now())
	return &n, nil
}

func documentLabel(docType model.KYCDocumentType) string {
	switch docType {
	case model.DocumentRG:
		return "RG"
	case model.DocumentProofOfAddress:
		return "comprovante de endereço"
	case model.DocumentSelfie:
		return "selfie"
	default:
		return string(docType)
	}
}
