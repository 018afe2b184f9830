// Package fsminfo decodes the JSON document describing a compiled
// automaton and its companion tokenizer vocabulary into the types the
// index package operates on. Regex/grammar compilation itself is out of
// scope for this module; this package is where an external compiler's
// output is expected to land.
package fsminfo

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/unaidedelf8777/faster-outlines/automaton"
	"github.com/unaidedelf8777/faster-outlines/vocab"
)

// Document is the wire shape this package decodes. Field names mirror
// the serde schema of the project's FSMInfo/TransitionMap structures.
type Document struct {
	Initial          uint32            `json:"initial"`
	NumStates        uint32            `json:"num_states"`
	Finals           []uint32          `json:"finals"`
	AlphabetLen      uint32            `json:"alphabet_len"`
	AlphabetAnything uint32            `json:"alphabet_anything_value"`
	AlphabetMapping  map[string]uint32 `json:"alphabet_symbol_mapping"`
	Transitions      []uint32          `json:"transitions"`
	Pattern          string            `json:"pattern"`
	Vocabulary       []VocabEntry      `json:"vocabulary"`
	EOSTokenID       uint32            `json:"eos_token_id"`
}

// VocabEntry is one entry of Document.Vocabulary.
type VocabEntry struct {
	Token string   `json:"token"`
	IDs   []uint32 `json:"ids"`
}

// Decode parses r as a Document and builds the Automaton and Vocabulary
// it describes. decodeBytelevel is forwarded to vocab.Options.
func Decode(r io.Reader, decodeBytelevel bool) (*automaton.Automaton, *vocab.Vocabulary, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("fsminfo: decode: %w", err)
	}
	return Build(&doc, decodeBytelevel)
}

// Build constructs an Automaton and Vocabulary from an already-decoded
// Document.
func Build(doc *Document, decodeBytelevel bool) (*automaton.Automaton, *vocab.Vocabulary, error) {
	alphabet := make(map[rune]uint32, len(doc.AlphabetMapping))
	for s, sym := range doc.AlphabetMapping {
		r := []rune(s)
		if len(r) != 1 {
			return nil, nil, fmt.Errorf("fsminfo: alphabet_symbol_mapping key %q is not a single rune", s)
		}
		alphabet[r[0]] = sym
	}

	a, err := automaton.New(doc.Initial, doc.NumStates, doc.Finals, doc.AlphabetLen, doc.AlphabetAnything, doc.Transitions, alphabet, doc.Pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("fsminfo: %w", err)
	}

	entries := make([]vocab.Entry, len(doc.Vocabulary))
	for i, e := range doc.Vocabulary {
		entries[i] = vocab.Entry{Token: e.Token, IDs: e.IDs}
	}
	v, err := vocab.New(entries, doc.EOSTokenID, vocab.Options{DecodeBytelevel: decodeBytelevel})
	if err != nil {
		return nil, nil, fmt.Errorf("fsminfo: %w", err)
	}

	return a, v, nil
}

// group coalesces concurrent decodes of the same document contents —
// e.g. several request-handling goroutines loading the same on-disk
// FSMInfo file at startup — into a single json.Decode + Build call.
var group singleflight.Group

// loadedCache avoids re-running singleflight.Group.Do (and therefore
// re-parsing) once a given cache key has already been decoded; Do alone
// only dedups calls that overlap in time.
var (
	loadedMu    sync.Mutex
	loadedCache = make(map[string]*loaded)
)

type loaded struct {
	a *automaton.Automaton
	v *vocab.Vocabulary
}

// DecodeCached behaves like Decode, but memoizes the result under key
// (typically a file path or content hash) so repeated calls with the
// same key after the first successful decode never re-parse the
// document.
func DecodeCached(key string, r io.Reader, decodeBytelevel bool) (*automaton.Automaton, *vocab.Vocabulary, error) {
	loadedMu.Lock()
	if l, ok := loadedCache[key]; ok {
		loadedMu.Unlock()
		return l.a, l.v, nil
	}
	loadedMu.Unlock()

	v, err, _ := group.Do(key, func() (interface{}, error) {
		a, voc, err := Decode(r, decodeBytelevel)
		if err != nil {
			return nil, err
		}
		return &loaded{a: a, v: voc}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	l := v.(*loaded)

	loadedMu.Lock()
	loadedCache[key] = l
	loadedMu.Unlock()

	return l.a, l.v, nil
}
