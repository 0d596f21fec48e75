// Package jwt mints and verifies the HS256 access and step-up tokens shared by both
// chat platforms. A single secret signs every token so either platform's verifier can
// accept it without knowing the other's keys.
package jwt
