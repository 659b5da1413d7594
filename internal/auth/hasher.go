package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt with an injectable cost factor. bcrypt is
// deliberately slow and salts every digest; comparison is constant-time with
// respect to the secret.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given cost. A zero cost falls
// back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash produces a salted one-way digest of the secret.
func (h *PasswordHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest. A malformed digest is a
// mismatch, never an error.
func (h *PasswordHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
