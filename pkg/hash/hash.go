package hash

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor for stored password hashes.
const Cost = 10

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) bool
}

type Bcrypt struct {
	Cost int
}

func NewBcrypt() Bcrypt { return Bcrypt{Cost: Cost} }

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = Cost
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (Bcrypt) Check(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
