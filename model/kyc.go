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

import (
	"time"
)

// KYCDocumentType identifies the kind of identity document a user submitted.
type KYCDocumentType string

const (
	DocumentRG             KYCDocumentType = "RG"
	DocumentProofOfAddress KYCDocumentType = "PROOF_OF_ADDRESS"
	DocumentSelfie         KYCDocumentType = "SELFIE"
)

// KYCDocumentStatus is the review state of a submitted document.
type KYCDocumentStatus string

const (
	KYCDocumentPending  KYCDocumentStatus = "PENDING"
	KYCDocumentApproved KYCDocumentStatus = "APPROVED"
	KYCDocumentRejected KYCDocumentStatus = "REJECTED"
)

// KYCLevel gates transaction limits. Levels are ordered; see Rank.
type KYCLevel string

const (
	KYCLevelNone         KYCLevel = "NONE"
	KYCLevelBasic        KYCLevel = "BASIC"
	KYCLevelIntermediate KYCLevel = "INTERMEDIATE"
	KYCLevelAdvanced     KYCLevel = "ADVANCED"
)

// Rank returns the position of the level; unknown levels rank as NONE.
func (l KYCLevel) Rank() int {
	switch l {
	case KYCLevelBasic:
		return 1
	case KYCLevelIntermediate:
		return 2
	case KYCLevelAdvanced:
		return 3
	default:
		return 0
	}
}

// KYCDocument is a single document under review by the KYC provider.
type KYCDocument struct {
	DocumentID   string            `json:"document_id"`
	UserID       string            `json:"user_id"`
	DocumentType KYCDocumentType   `json:"document_type"`
	Status       KYCDocumentStatus `json:"status"`
	ReviewNotes  string            `json:"review_notes,omitempty"`
	ReviewedBy   string            `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// User is the KYC view of a platform user.
type User struct {
	UserID     string    `json:"user_id"`
	NationalID string    `json:"national_id,omitempty"`
	KYCLevel   KYCLevel  `json:"kyc_level"`
	UpdatedAt  time.Time `json:"updated_at"`
}
