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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidCacheEntry indicates a CacheEntry failed validation.
	ErrInvalidCacheEntry = errors.New("invalid cache entry")

	// ErrInvalidCustomerQuery indicates a CustomerQuery failed validation.
	ErrInvalidCustomerQuery = errors.New("invalid customer query")

	// ErrEmptyContent indicates a content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyQuestion indicates a question is empty after trimming.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrEmptyFilename indicates a document has no filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidRole indicates an unrecognized role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidStatus indicates an unrecognized document status value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidQueryStatus indicates an unrecognized customer query status value.
	ErrInvalidQueryStatus = errors.New("invalid query status")

	// ErrInvalidTransition indicates a document status change not present in
	// the allowed-transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
