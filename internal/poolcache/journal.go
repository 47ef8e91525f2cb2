// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package poolcache

import (
	"bufio"
	"io"
)

// JournalOp tags one journal entry's mutation kind (spec §4.4: "append-only
// sequence of entries {op: Add|Update|Delete, record}").
type JournalOp uint8

const (
	JournalAdd JournalOp = iota + 1
	JournalUpdate
	JournalDelete
)

// journalEntrySize is one op byte followed by a full packed PoolRecord; a
// Delete entry only needs the address, but a uniform fixed size keeps
// replay dead simple and avoids a second on-disk format, grounded on the
// teacher's SBatchFileSink preference for fixed-size binary records over a
// variable-length scheme (internal/sinks/sbatch_file_sink.go).
const journalEntrySize = 1 + RecordSize

// JournalEntry is one decoded journal record.
type JournalEntry struct {
	Op     JournalOp
	Record PoolRecord
}

// WriteJournalEntry appends one entry to w (expected to be a buffered
// append-mode file writer; the writer is responsible for flushing).
func WriteJournalEntry(w *bufio.Writer, op JournalOp, rec PoolRecord) error {
	if err := w.WriteByte(byte(op)); err != nil {
		return err
	}
	_, err := w.Write(rec.AsBytes())
	return err
}

// ReadJournal replays every complete entry from r in order. A trailing
// partial entry — the shape left behind by a crash mid-append — is
// discarded rather than treated as an error (spec §4.4: "a crash mid-
// snapshot leaves the old snapshot + full journal intact; replay yields
// the same state", which only holds if a torn final write doesn't abort
// the whole replay).
func ReadJournal(r io.Reader) ([]JournalEntry, error) {
	br := bufio.NewReader(r)
	var entries []JournalEntry
	buf := make([]byte, journalEntrySize)
	for {
		n, err := io.ReadFull(br, buf)
		if n == 0 && (err == io.EOF || err == nil) {
			break
		}
		if err == io.ErrUnexpectedEOF || (err == io.EOF && n < journalEntrySize) {
			break
		}
		if err != nil && err != io.EOF {
			return entries, err
		}
		rec, decErr := PoolRecordFromBytes(buf[1:])
		if decErr != nil {
			return entries, decErr
		}
		entries = append(entries, JournalEntry{Op: JournalOp(buf[0]), Record: rec})
		if err == io.EOF {
			break
		}
	}
	return entries, nil
}

// ApplyJournal folds entries atop an already-loaded pool map.
func ApplyJournal(pools map[[20]byte]PoolRecord, entries []JournalEntry) {
	for _, e := range entries {
		switch e.Op {
		case JournalAdd, JournalUpdate:
			pools[e.Record.PoolAddr] = e.Record
		case JournalDelete:
			delete(pools, e.Record.PoolAddr)
		}
	}
}
