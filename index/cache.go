package index

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/unaidedelf8777/faster-outlines/vocab"
)

// fingerprintPrefixLen bounds how much of a vocabulary the cache key
// samples. Vocabularies routinely carry 30,000+ entries; hashing every
// one of them on every lookup would make the cache itself the
// bottleneck it exists to avoid. Matches the constant used by the
// faster-outlines project this package is modeled on.
const fingerprintPrefixLen = 100

// Fingerprint computes the approximate 64-bit cache key for a
// (pattern, vocabulary) pair: the vocabulary's length, its first
// fingerprintPrefixLen entries (string plus id list, in order), and the
// pattern text, combined with a non-cryptographic hash. Two
// vocabularies that agree on these fields but differ later are treated
// as identical — an accepted approximation, not a correctness
// guarantee, exactly as documented for the cache this mirrors.
func Fingerprint(pattern string, v *vocab.Vocabulary) uint64 {
	d := xxhash.New()
	var scratch [8]byte
	putUint64 := func(n uint64) {
		for i := range scratch {
			scratch[i] = byte(n >> (8 * i))
		}
		d.Write(scratch[:])
	}
	putUint64(uint64(v.Len()))
	for _, e := range v.Prefix(fingerprintPrefixLen) {
		d.Write([]byte(e.Token))
		for _, id := range e.IDs {
			putUint64(uint64(id))
		}
	}
	d.Write([]byte(pattern))
	return d.Sum64()
}

// CachedIndex is a completed index build, keyed and stored by Cache for
// reuse across LazyIndex instances that build from the same
// (pattern, vocabulary) pair.
type CachedIndex struct {
	Fingerprint uint64
	FirstState  uint32
	Finals      []uint32
	Maps        []map[uint32]uint32 // one per state, indexed by state id
}

// Cache is a process-wide, fixed-capacity store of CachedIndex values
// keyed by Fingerprint. It is safe for concurrent use.
//
// Cache also tracks in-flight builds: when New (lazy.go) misses the LRU
// for a fingerprint that is already being built by another LazyIndex, it
// hands back that in-progress instance instead of starting a redundant
// walk of the same automaton. This is the coalescing mechanism
// referenced in SPEC_FULL's discussion of concurrent identical builds.
type Cache struct {
	lru     *lru.Cache[uint64, *CachedIndex]
	disable bool
	ipc     *ipcClient // nil unless cross-process publishing is enabled

	mu       sync.Mutex
	building map[uint64]*LazyIndex
}

// NewCache builds a Cache from cfg. Returns an *IndexError with Kind
// InputInvalid if cfg fails Validate.
func NewCache(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l, err := lru.New[uint64, *CachedIndex](cfg.CacheSize)
	if err != nil {
		return nil, &IndexError{Kind: InternalInvariant, Message: "failed to allocate LRU cache", Cause: err}
	}
	return &Cache{lru: l, disable: cfg.DisableCache, building: make(map[uint64]*LazyIndex)}, nil
}

// claimBuild returns the LazyIndex already being built for fp, if any.
// Otherwise it registers li as the build in progress for fp and returns
// (nil, false): the caller is now responsible for calling releaseBuild
// once the build completes.
func (c *Cache) claimBuild(fp uint64, li *LazyIndex) (*LazyIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.building[fp]; ok {
		return existing, true
	}
	c.building[fp] = li
	return nil, false
}

// releaseBuild removes fp's in-flight registration once its build has
// completed and been inserted into the LRU.
func (c *Cache) releaseBuild(fp uint64) {
	c.mu.Lock()
	delete(c.building, fp)
	c.mu.Unlock()
}

// Get returns the cached index for key, if present. Always misses when
// the cache was constructed with DisableCache.
func (c *Cache) Get(key uint64) (*CachedIndex, bool) {
	if c.disable {
		return nil, false
	}
	return c.lru.Get(key)
}

// Insert stores ci under its own Fingerprint. A no-op when the cache was
// constructed with DisableCache.
func (c *Cache) Insert(ci *CachedIndex) {
	if c.disable {
		return
	}
	c.lru.Add(ci.Fingerprint, ci)
	if c.ipc != nil {
		c.ipc.publish(ci)
	}
}

// Len reports how many entries the cache currently holds.
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
