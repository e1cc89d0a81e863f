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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

func (d Datasource) GetKYCDocument(ctx context.Context, id string) (*model.KYCDocument, error) {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Fetching kyc document from db")
	defer span.End()

	row := d.q().QueryRowContext(ctx, `
		SELECT document_id, user_id, document_type, status, review_notes, reviewed_by, reviewed_at, created_at, updated_at
		FROM tradedesk.kyc_documents
		WHERE document_id = $1`+d.lockClause(), id)

	doc := &model.KYCDocument{}
	var notes, reviewedBy sql.NullString
	err := row.Scan(&doc.DocumentID, &doc.UserID, &doc.DocumentType, &doc.Status, &notes, &reviewedBy, &doc.ReviewedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NotFound(fmt.Sprintf("KYC document with ID '%s' not found", id))
		}
		return nil, apierror.Internal("Failed to retrieve kyc document", err)
	}
	doc.ReviewNotes = notes.String
	doc.ReviewedBy = reviewedBy.String
	return doc, nil
}

func (d Datasource) UpdateKYCDocument(ctx context.Context, doc *model.KYCDocument) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Updating kyc document")
	defer span.End()

	result, err := d.q().ExecContext(ctx, `
		UPDATE tradedesk.kyc_documents
		SET status = $2, review_notes = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $6
		WHERE document_id = $1
	`, doc.DocumentID, doc.Status, nullString(doc.ReviewNotes), nullString(doc.ReviewedBy), doc.ReviewedAt, doc.UpdatedAt)
	if err != nil {
		return apierror.Internal("Failed to update kyc document", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.Internal("Failed to read affected rows", err)
	}
	if rows == 0 {
		return apierror.NotFound(fmt.Sprintf("KYC document with ID '%s' not found", doc.DocumentID))
	}
	return nil
}

// GetApprovedDocumentTypes lists the distinct document types a user has had approved.
func (d Datasource) GetApprovedDocumentTypes(ctx context.Context, userID string) ([]model.KYCDocumentType, error) {
	rows, err := d.q().QueryContext(ctx, `
		SELECT DISTINCT document_type
		FROM tradedesk.kyc_documents
		WHERE user_id = $1 AND status = $2
	`, userID, model.KYCDocumentApproved)
	if err != nil {
		return nil, apierror.Internal("Failed to list approved documents", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var types []model.KYCDocumentType
	for rows.Next() {
		var docType model.KYCDocumentType
		if err := rows.Scan(&docType); err != nil {
			return nil, apierror.Internal("Failed to scan document type", err)
		}
		types = append(types, docType)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.Internal("Failed to list approved documents", err)
	}
	return types, nil
}

func (d Datasource) GetUser(ctx context.Context, userID string) (*model.User, error) {
	row := d.q().QueryRowContext(ctx, `
		SELECT user_id, national_id, kyc_level, updated_at
		FROM tradedesk.users
		WHERE user_id = $1`+d.lockClause(), userID)

	user := &model.User{}
	var nationalID sql.NullString
	err := row.Scan(&user.UserID, &nationalID, &user.KYCLevel, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NotFound(fmt.Sprintf("User with ID '%s' not found", userID))
		}
		return nil, apierror.Internal("Failed to retrieve user", err)
	}
	user.NationalID = nationalID.String
	return user, nil
}

func (d Datasource) UpdateUserKYCLevel(ctx context.Context, userID string, level model.KYCLevel) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Updating user kyc level")
	defer span.End()

	result, err := d.q().ExecContext(ctx, `
		UPDATE tradedesk.users SET kyc_level = $2, updated_at = $3 WHERE user_id = $1
	`, userID, level, time.Now())
	if err != nil {
		return apierror.Internal("Failed to update kyc level", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.Internal("Failed to read affected rows", err)
	}
	if rows == 0 {
		return apierror.NotFound(fmt.Sprintf("User with ID '%s' not found", userID))
	}
	return nil
}
