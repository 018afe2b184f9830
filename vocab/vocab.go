// Package vocab models a tokenizer vocabulary: an ordered list of token
// strings, each mapped to one or more token ids (synonyms — distinct ids
// that decode to the same string are common with byte-fallback and
// added-token tokenizers), plus a distinguished end-of-sequence id.
package vocab

import "fmt"

// Entry is one vocabulary slot: a token's string form and the token ids
// that produce it.
type Entry struct {
	Token string
	IDs   []uint32
}

// Vocabulary is an ordered, immutable collection of Entry values.
type Vocabulary struct {
	entries []Entry
	eos     uint32
}

// Options controls optional preprocessing performed by New.
type Options struct {
	// DecodeBytelevel runs each entry's token string through Decode
	// (see bytelevel.go) once, at construction time, translating
	// byte-fallback escapes and word-boundary sentinels into their
	// literal byte/rune form.
	DecodeBytelevel bool
}

// New builds a Vocabulary from entries in insertion order. Returns an
// error if entries is empty or any entry carries no ids.
func New(entries []Entry, eos uint32, opts Options) (*Vocabulary, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("vocab: entries must be non-empty")
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if len(e.IDs) == 0 {
			return nil, fmt.Errorf("vocab: entry %q has no token ids", e.Token)
		}
		ids := make([]uint32, len(e.IDs))
		copy(ids, e.IDs)
		tok := e.Token
		if opts.DecodeBytelevel {
			tok = Decode(tok)
		}
		out[i] = Entry{Token: tok, IDs: ids}
	}
	return &Vocabulary{entries: out, eos: eos}, nil
}

// Len returns the number of entries.
func (v *Vocabulary) Len() int { return len(v.entries) }

// At returns the entry at position i.
func (v *Vocabulary) At(i int) Entry { return v.entries[i] }

// EOS returns the end-of-sequence token id.
func (v *Vocabulary) EOS() uint32 { return v.eos }

// Prefix returns (a view of) the first n entries in insertion order,
// or all entries if n >= Len(). Used by the cache fingerprint, which
// only samples a bounded prefix of a potentially huge vocabulary.
func (v *Vocabulary) Prefix(n int) []Entry {
	if n > len(v.entries) {
		n = len(v.entries)
	}
	return v.entries[:n]
}
