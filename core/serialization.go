package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Handwritten MUS serializers for the domain records. Field order is part of
// the on-disk format; append new fields at the end only.

// IDMUS serializes ID values.
var IDMUS = idMUS{}

// DocumentMUS serializes Document records.
var DocumentMUS = documentMUS{}

// ChunkMUS serializes Chunk records.
var ChunkMUS = chunkMUS{}

// EmbeddingMUS serializes Embedding records.
var EmbeddingMUS = embeddingMUS{}

// CacheEntryMUS serializes CacheEntry records.
var CacheEntryMUS = cacheEntryMUS{}

// CustomerQueryMUS serializes CustomerQuery records.
var CustomerQueryMUS = customerQueryMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// Timestamps are stored as unix microseconds.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalVector(vec []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vec), bs)
	for _, f := range vec {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (vec []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	vec = make([]float32, length)
	for i := 0; i < length; i++ {
		var m int
		vec[i], m, err = raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return vec, n, nil
}

func sizeVector(vec []float32) (size int) {
	size = varint.Int.Size(len(vec))
	for _, f := range vec {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalStringMap(m map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(m), bs)
	for k, v := range m {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (m map[string]string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	m = make(map[string]string, length)
	for i := 0; i < length; i++ {
		var k, v string
		var j int
		k, j, err = ord.String.Unmarshal(bs[n:])
		n += j
		if err != nil {
			return nil, n, err
		}
		v, j, err = ord.String.Unmarshal(bs[n:])
		n += j
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func sizeStringMap(m map[string]string) (size int) {
	size = varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += varint.Int64.Marshal(d.Size, bs[n:])
	n += ord.String.Marshal(d.MediaType, bs[n:])
	n += ord.String.Marshal(d.StorageRef, bs[n:])
	n += varint.Uint8.Marshal(uint8(d.Status), bs[n:])
	n += ord.String.Marshal(d.ErrorMessage, bs[n:])
	n += varint.Uint8.Marshal(uint8(d.VisibleTo), bs[n:])
	n += marshalTime(d.InsertedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var j int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return d, n, err
	}
	if d.Filename, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	if d.Size, j, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	if d.MediaType, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	if d.StorageRef, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	var u8 uint8
	if u8, j, err = varint.Uint8.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	d.Status = DocumentStatus(u8)
	n += j
	if d.ErrorMessage, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	if u8, j, err = varint.Uint8.Unmarshal(bs[n:]); err != nil {
		return d, n + j, err
	}
	d.VisibleTo = RoleSet(u8)
	n += j
	if d.InsertedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	if d.UpdatedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + j, err
	}
	n += j
	return d, n, nil
}

func (documentMUS) Size(d Document) int {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.Filename) +
		varint.Int64.Size(d.Size) +
		ord.String.Size(d.MediaType) +
		ord.String.Size(d.StorageRef) +
		varint.Uint8.Size(uint8(d.Status)) +
		ord.String.Size(d.ErrorMessage) +
		varint.Uint8.Size(uint8(d.VisibleTo)) +
		sizeTime(d.InsertedAt) +
		sizeTime(d.UpdatedAt)
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Uint32.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += marshalStringMap(c.Metadata, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var j int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return c, n, err
	}
	if c.DocumentId, j, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + j, err
	}
	n += j
	if c.Index, j, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return c, n + j, err
	}
	n += j
	if c.Content, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + j, err
	}
	n += j
	if c.Metadata, j, err = unmarshalStringMap(bs[n:]); err != nil {
		return c, n + j, err
	}
	n += j
	if c.InsertedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return c, n + j, err
	}
	n += j
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.DocumentId) +
		varint.Uint32.Size(c.Index) +
		ord.String.Size(c.Content) +
		sizeStringMap(c.Metadata) +
		sizeTime(c.InsertedAt)
}

type embeddingMUS struct{}

func (embeddingMUS) Marshal(e Embedding, bs []byte) (n int) {
	n = IDMUS.Marshal(e.ChunkId, bs)
	n += marshalVector(e.Vector, bs[n:])
	n += marshalTime(e.InsertedAt, bs[n:])
	return n
}

func (embeddingMUS) Unmarshal(bs []byte) (e Embedding, n int, err error) {
	var j int
	if e.ChunkId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return e, n, err
	}
	if e.Vector, j, err = unmarshalVector(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	if e.InsertedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	return e, n, nil
}

func (embeddingMUS) Size(e Embedding) int {
	return IDMUS.Size(e.ChunkId) + sizeVector(e.Vector) + sizeTime(e.InsertedAt)
}

type cacheEntryMUS struct{}

func (cacheEntryMUS) Marshal(e CacheEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(e.Id, bs)
	n += ord.String.Marshal(e.Question, bs[n:])
	n += varint.Uint8.Marshal(uint8(e.Role), bs[n:])
	n += marshalVector(e.Vector, bs[n:])
	n += ord.String.Marshal(e.Answer, bs[n:])
	n += varint.Int.Marshal(len(e.Sources), bs[n:])
	for _, src := range e.Sources {
		n += IDMUS.Marshal(src.DocumentId, bs[n:])
		n += IDMUS.Marshal(src.ChunkId, bs[n:])
	}
	n += varint.Uint32.Marshal(e.HitCount, bs[n:])
	n += marshalTime(e.LastHitAt, bs[n:])
	n += marshalTime(e.InsertedAt, bs[n:])
	n += marshalTime(e.UpdatedAt, bs[n:])
	return n
}

func (cacheEntryMUS) Unmarshal(bs []byte) (e CacheEntry, n int, err error) {
	var j int
	if e.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return e, n, err
	}
	if e.Question, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	var u8 uint8
	if u8, j, err = varint.Uint8.Unmarshal(bs[n:]); err != nil {
		return e, n + j, err
	}
	e.Role = Role(u8)
	n += j
	if e.Vector, j, err = unmarshalVector(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	if e.Answer, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	var count int
	if count, j, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	if count > 0 {
		e.Sources = make([]SourceRef, count)
		for i := 0; i < count; i++ {
			if e.Sources[i].DocumentId, j, err = IDMUS.Unmarshal(bs[n:]); err != nil {
				return e, n + j, err
			}
			n += j
			if e.Sources[i].ChunkId, j, err = IDMUS.Unmarshal(bs[n:]); err != nil {
				return e, n + j, err
			}
			n += j
		}
	}
	if e.HitCount, j, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	if e.LastHitAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	if e.InsertedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	if e.UpdatedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + j, err
	}
	n += j
	return e, n, nil
}

func (cacheEntryMUS) Size(e CacheEntry) int {
	size := IDMUS.Size(e.Id) +
		ord.String.Size(e.Question) +
		varint.Uint8.Size(uint8(e.Role)) +
		sizeVector(e.Vector) +
		ord.String.Size(e.Answer) +
		varint.Int.Size(len(e.Sources))
	for _, src := range e.Sources {
		size += IDMUS.Size(src.DocumentId)
		size += IDMUS.Size(src.ChunkId)
	}
	size += varint.Uint32.Size(e.HitCount) +
		sizeTime(e.LastHitAt) +
		sizeTime(e.InsertedAt) +
		sizeTime(e.UpdatedAt)
	return size
}

type customerQueryMUS struct{}

func (customerQueryMUS) Marshal(q CustomerQuery, bs []byte) (n int) {
	n = IDMUS.Marshal(q.Id, bs)
	n += ord.String.Marshal(q.Question, bs[n:])
	n += ord.String.Marshal(q.ContactName, bs[n:])
	n += ord.String.Marshal(q.ContactEmail, bs[n:])
	n += varint.Uint8.Marshal(uint8(q.Status), bs[n:])
	n += marshalTime(q.InsertedAt, bs[n:])
	n += marshalTime(q.UpdatedAt, bs[n:])
	return n
}

func (customerQueryMUS) Unmarshal(bs []byte) (q CustomerQuery, n int, err error) {
	var j int
	if q.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return q, n, err
	}
	if q.Question, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return q, n + j, err
	}
	n += j
	if q.ContactName, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return q, n + j, err
	}
	n += j
	if q.ContactEmail, j, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return q, n + j, err
	}
	n += j
	var u8 uint8
	if u8, j, err = varint.Uint8.Unmarshal(bs[n:]); err != nil {
		return q, n + j, err
	}
	q.Status = QueryStatus(u8)
	n += j
	if q.InsertedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return q, n + j, err
	}
	n += j
	if q.UpdatedAt, j, err = unmarshalTime(bs[n:]); err != nil {
		return q, n + j, err
	}
	n += j
	return q, n, nil
}

func (customerQueryMUS) Size(q CustomerQuery) int {
	return IDMUS.Size(q.Id) +
		ord.String.Size(q.Question) +
		ord.String.Size(q.ContactName) +
		ord.String.Size(q.ContactEmail) +
		varint.Uint8.Size(uint8(q.Status)) +
		sizeTime(q.InsertedAt) +
		sizeTime(q.UpdatedAt)
}
