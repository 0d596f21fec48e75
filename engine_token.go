package bridgeAuth

import (
	"crypto/subtle"
	"fmt"
)

// proof seals the shared pair into the "p" claim.
func (e *Engine) proof() (string, error) {
	return e.encrypter.Encrypt(e.config.Token.SharedPair.String())
}

func (e *Engine) validProof(p string) bool {
	if p == "" {
		return false
	}
	plain, err := e.encrypter.Decrypt(p)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(e.config.Token.SharedPair.String())) == 1
}

// mintAccess signs a 24h access token for user.
func (e *Engine) mintAccess(user *SecondaryUser) (string, error) {
	if e.signer == nil {
		return "", ErrEngineNotReady
	}
	p, err := e.proof()
	if err != nil {
		return "", fmt.Errorf("%w: seal proof: %v", ErrInternal, err)
	}
	token, err := e.signer.CreateAccess(user.ID, user.Email, user.Role, p)
	if err != nil {
		return "", fmt.Errorf("%w: sign access token: %v", ErrInternal, err)
	}
	return token, nil
}

func (e *Engine) mintStepUp(userID string) (string, error) {
	if e.signer == nil {
		return "", ErrEngineNotReady
	}
	token, err := e.signer.CreateStepUp(userID)
	if err != nil {
		return "", fmt.Errorf("%w: sign step-up token: %v", ErrInternal, err)
	}
	return token, nil
}
