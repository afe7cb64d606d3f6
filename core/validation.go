// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - Status must be a known status value
//   - VisibleTo must include the owner role
//
// NOT validated (populated by the pipeline):
//   - ErrorMessage (only meaningful when Status is StatusFailed)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !doc.VisibleTo.Has(RoleOwner) {
		return fmt.Errorf("%w: owner role must be visible", ErrInvalidDocument)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty after trimming whitespace
//   - DocumentId must be set
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id required", ErrInvalidChunk)
	}

	return nil
}

// ValidateCacheEntry validates a CacheEntry according to domain rules.
func ValidateCacheEntry(entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidCacheEntry)
	}

	if strings.TrimSpace(entry.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCacheEntry, ErrEmptyQuestion)
	}

	if err := ValidateRole(entry.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCacheEntry, err)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: question embedding required", ErrInvalidCacheEntry)
	}

	return nil
}

// ValidateCustomerQuery validates a CustomerQuery according to domain rules.
func ValidateCustomerQuery(q *CustomerQuery) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidCustomerQuery)
	}

	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCustomerQuery, ErrEmptyQuestion)
	}

	return nil
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(role Role) error {
	if role != RoleOwner && role != RoleStaff && role != RoleExternal {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// ValidateStatus validates that a DocumentStatus has a known value.
func ValidateStatus(status DocumentStatus) error {
	switch status {
	case StatusProcessing, StatusChunksCreated, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// ValidateQueryStatus validates that a QueryStatus has a known value.
func ValidateQueryStatus(status QueryStatus) error {
	switch status {
	case QueryPending, QueryResponded, QueryArchived:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidQueryStatus, status)
	}
}
