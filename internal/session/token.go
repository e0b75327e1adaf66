package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TokenLength is the fixed width of every session token: 32 lowercase hex
// characters (128 bits of digest).
const TokenLength = 32

var tokenShape = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ValidToken reports whether token satisfies the shape contract. Tokens
// failing this check must be rejected before any storage lookup.
func ValidToken(token string) bool {
	return len(token) == TokenLength && tokenShape.MatchString(token)
}

// TokenSource derives session tokens by digesting a process-unique seed, a
// per-source counter, the user's stored password hash, the username and the
// current wall-clock time.
type TokenSource struct {
	seed string
	now  func() time.Time
	ctr  atomic.Uint64
}

// NewTokenSource returns a source seeded with a fresh process-unique value.
func NewTokenSource() *TokenSource {
	return &TokenSource{seed: uuid.NewString(), now: time.Now}
}

// Next produces one token. Successive calls never repeat their input even
// under a frozen clock, so collisions reduce to digest truncation odds.
func (ts *TokenSource) Next(username, passwordHash string) string {
	n := ts.ctr.Add(1)
	material := fmt.Sprintf("%s|%d|%s|%s|%d", ts.seed, n, username, passwordHash, ts.now().UnixNano())
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:16])
}
