package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"log"
)

// GenerateState returns a fresh single-use nonce binding an
// authorization request to its callback.
func GenerateState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Println("Error generating rand: ", err)
	}
	return base64.URLEncoding.EncodeToString(b)
}
