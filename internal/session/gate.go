package session

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
)

// PasswordGate stores one credential per session as a one-way digest.
// Setting a credential twice overwrites the previous value; a session
// with no credential rejects every candidate.
type PasswordGate struct {
	mu     sync.RWMutex
	hashes map[string]string
}

// NewPasswordGate creates an empty gate.
func NewPasswordGate() *PasswordGate {
	return &PasswordGate{hashes: make(map[string]string)}
}

// Set replaces the session's credential with the digest of plaintext.
func (g *PasswordGate) Set(sessionID, plaintext string) {
	digest := hashPassword(plaintext)
	g.mu.Lock()
	g.hashes[sessionID] = digest
	g.mu.Unlock()
}

// Verify reports whether plaintext matches the session's stored
// credential. It is false when no credential has ever been set.
func (g *PasswordGate) Verify(sessionID, plaintext string) bool {
	g.mu.RLock()
	stored, ok := g.hashes[sessionID]
	g.mu.RUnlock()
	return ok && stored == hashPassword(plaintext)
}

// Remove drops the session's credential, if any.
func (g *PasswordGate) Remove(sessionID string) {
	g.mu.Lock()
	delete(g.hashes, sessionID)
	g.mu.Unlock()
}

// hashPassword digests the UTF-8 bytes of the password with SHA-256 and
// renders the sum as standard base64.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}
