package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/auth"
)

type TokenCmd struct {
	PrincipalID string        `help:"principal id the token is issued for" required:""`
	Secret      string        `help:"HMAC signing secret (must match the server's)" env:"PORTAL_JWT_SECRET" required:""`
	Issuer      string        `help:"issuer claim" default:"https://portal.neyraq.example" env:"PORTAL_JWT_ISSUER"`
	TTL         time.Duration `help:"token lifetime" default:"1h"`
}

func (c *TokenCmd) Run(globals *Globals) error {
	principalID, err := uuid.Parse(c.PrincipalID)
	if err != nil {
		return fmt.Errorf("invalid principal id: %w", err)
	}

	signer, err := auth.NewJWTSigner([]byte(c.Secret), c.Issuer, c.TTL)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	token, err := signer.Issue(principalID)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
