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

// MUS serializers for the domain records stored in badger. Maintained by
// hand on top of the mus-go primitives; field order is part of the stored
// format, so new fields go at the end.

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS serializes core.ID values as varint uint64.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int { return varint.Uint64.Marshal(uint64(v), bs) }

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int { return varint.Uint64.Size(uint64(v)) }

// timeMUS serializes timestamps as UnixMicro int64.
type timeMUS struct{}

var timeSer = timeMUS{}

func (timeMUS) Marshal(v time.Time, bs []byte) int {
	if v.IsZero() {
		return varint.Int64.Marshal(0, bs)
	}
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	u, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || u == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(u).UTC(), n, nil
}

func (timeMUS) Size(v time.Time) int {
	if v.IsZero() {
		return varint.Int64.Size(0)
	}
	return varint.Int64.Size(v.UnixMicro())
}

// vectorMUS serializes embedding vectors as a varint length followed by
// raw (fixed-width) float32 elements.
type vectorMUS struct{}

var vectorSer = vectorMUS{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var m int
		v[i], m, err = raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

// stringsMUS serializes string slices (note tags, profile lists).
type stringsMUS struct{}

var stringsSer = stringsMUS{}

func (stringsMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func (stringsMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]string, length)
	for i := 0; i < length; i++ {
		var m int
		v[i], m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (stringsMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return
}

// DocumentMUS serializes Document records.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.OwnerId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.FileType, bs[n:])
	n += ord.String.Marshal(v.StoragePath, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += varint.Int64.Marshal(v.FileSize, bs[n:])
	n += varint.Int.Marshal(v.WordCount, bs[n:])
	n += varint.Int.Marshal(v.PageCount, bs[n:])
	n += IDMUS.Marshal(v.CollectionId, bs[n:])
	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.OwnerId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.FileType, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.StoragePath, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.FileSize, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.WordCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.PageCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.CollectionId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:])
	return v, n + m, err
}

func (documentMUS) Size(v Document) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.OwnerId) + ord.String.Size(v.Title) +
		ord.String.Size(v.FileType) + ord.String.Size(v.StoragePath) +
		ord.String.Size(v.Content) + varint.Int64.Size(v.FileSize) +
		varint.Int.Size(v.WordCount) + varint.Int.Size(v.PageCount) +
		IDMUS.Size(v.CollectionId) + timeSer.Size(v.InsertedAt) + timeSer.Size(v.UpdatedAt)
}

// DocumentChunkMUS serializes DocumentChunk records.
var DocumentChunkMUS = documentChunkMUS{}

type documentChunkMUS struct{}

func (documentChunkMUS) Marshal(v DocumentChunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += varint.Int.Marshal(v.ChunkIndex, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += varint.Int.Marshal(v.PageNumber, bs[n:])
	n += vectorSer.Marshal(v.Vector, bs[n:])
	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	return
}

func (documentChunkMUS) Unmarshal(bs []byte) (v DocumentChunk, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.DocumentId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.ChunkIndex, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.PageNumber, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.InsertedAt, m, err = timeSer.Unmarshal(bs[n:])
	return v, n + m, err
}

func (documentChunkMUS) Size(v DocumentChunk) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.DocumentId) + varint.Int.Size(v.ChunkIndex) +
		ord.String.Size(v.Content) + varint.Int.Size(v.PageNumber) +
		vectorSer.Size(v.Vector) + timeSer.Size(v.InsertedAt)
}

// NoteMUS serializes Note records.
var NoteMUS = noteMUS{}

type noteMUS struct{}

func (noteMUS) Marshal(v Note, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.OwnerId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += stringsSer.Marshal(v.Tags, bs[n:])
	n += vectorSer.Marshal(v.Vector, bs[n:])
	n += IDMUS.Marshal(v.Fingerprint, bs[n:])
	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (noteMUS) Unmarshal(bs []byte) (v Note, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.OwnerId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Tags, m, err = stringsSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Fingerprint, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:])
	return v, n + m, err
}

func (noteMUS) Size(v Note) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.OwnerId) + ord.String.Size(v.Title) +
		ord.String.Size(v.Content) + stringsSer.Size(v.Tags) + vectorSer.Size(v.Vector) +
		IDMUS.Size(v.Fingerprint) + timeSer.Size(v.InsertedAt) + timeSer.Size(v.UpdatedAt)
}

// ConversationMUS serializes Conversation records.
var ConversationMUS = conversationMUS{}

type conversationMUS struct{}

func (conversationMUS) Marshal(v Conversation, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.OwnerId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (conversationMUS) Unmarshal(bs []byte) (v Conversation, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.OwnerId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:])
	return v, n + m, err
}

func (conversationMUS) Size(v Conversation) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.OwnerId) + ord.String.Size(v.Title) +
		timeSer.Size(v.InsertedAt) + timeSer.Size(v.UpdatedAt)
}

// MessageMUS serializes Message records.
var MessageMUS = messageMUS{}

type messageMUS struct{}

func (messageMUS) Marshal(v Message, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ConversationId, bs[n:])
	n += IDMUS.Marshal(v.OwnerId, bs[n:])
	n += varint.Int.Marshal(int(v.Role), bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += vectorSer.Marshal(v.Vector, bs[n:])
	n += timeSer.Marshal(v.Timestamp, bs[n:])
	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (messageMUS) Unmarshal(bs []byte) (v Message, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.ConversationId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.OwnerId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var role int
	if role, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Role = MessageRole(role)
	n += m
	if v.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Timestamp, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:])
	return v, n + m, err
}

func (messageMUS) Size(v Message) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.ConversationId) + IDMUS.Size(v.OwnerId) +
		varint.Int.Size(int(v.Role)) + ord.String.Size(v.Content) +
		vectorSer.Size(v.Vector) + timeSer.Size(v.Timestamp) +
		timeSer.Size(v.InsertedAt) + timeSer.Size(v.UpdatedAt)
}

// ProfileMUS serializes Profile records.
var ProfileMUS = profileMUS{}

type profileMUS struct{}

func (profileMUS) Marshal(v Profile, bs []byte) (n int) {
	n = IDMUS.Marshal(v.OwnerId, bs)
	n += stringsSer.Marshal(v.Interests, bs[n:])
	n += stringsSer.Marshal(v.Concerns, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (profileMUS) Unmarshal(bs []byte) (v Profile, n int, err error) {
	var m int
	if v.OwnerId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Interests, m, err = stringsSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Concerns, m, err = stringsSer.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:])
	return v, n + m, err
}

func (profileMUS) Size(v Profile) int {
	return IDMUS.Size(v.OwnerId) + stringsSer.Size(v.Interests) +
		stringsSer.Size(v.Concerns) + timeSer.Size(v.UpdatedAt)
}
