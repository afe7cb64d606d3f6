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


package storage

import (
	"github.com/poiesic/docqa/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(emb *core.Embedding) []byte {
	buf := make([]byte, core.EmbeddingMUS.Size(*emb))
	core.EmbeddingMUS.Marshal(*emb, buf)
	return buf
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	emb, _, err := core.EmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &emb, nil
}

// MarshalCacheEntry serializes a CacheEntry to bytes.
func MarshalCacheEntry(entry *core.CacheEntry) []byte {
	buf := make([]byte, core.CacheEntryMUS.Size(*entry))
	core.CacheEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalCacheEntry deserializes a CacheEntry from bytes.
func UnmarshalCacheEntry(data []byte) (*core.CacheEntry, error) {
	entry, _, err := core.CacheEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalCustomerQuery serializes a CustomerQuery to bytes.
func MarshalCustomerQuery(q *core.CustomerQuery) []byte {
	buf := make([]byte, core.CustomerQueryMUS.Size(*q))
	core.CustomerQueryMUS.Marshal(*q, buf)
	return buf
}

// UnmarshalCustomerQuery deserializes a CustomerQuery from bytes.
func UnmarshalCustomerQuery(data []byte) (*core.CustomerQuery, error) {
	q, _, err := core.CustomerQueryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
