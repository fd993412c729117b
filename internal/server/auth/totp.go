package auth

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpPeriod = 30

// TOTPService handles two-factor login codes.
type TOTPService struct {
	issuer string
	now    func() time.Time
}

// NewTOTPService creates a TOTP service. issuer is shown in authenticator
// apps next to the account name.
func NewTOTPService(issuer string) *TOTPService {
	if issuer == "" {
		issuer = "SaaS Admin"
	}
	return &TOTPService{
		issuer: issuer,
		now:    time.Now,
	}
}

// GenerateSecret creates a secret for email and returns it with the
// otpauth:// URL to render as a QR code.
func (s *TOTPService) GenerateSecret(email string) (string, string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
		Secret:      secret,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// ValidateCode accepts codes from the current period and one period on
// either side.
func (s *TOTPService) ValidateCode(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	valid, err := totp.ValidateCustom(code, secret, s.now(), validateOpts())
	return err == nil && valid
}

// CodeAt returns the code valid at t.
func (s *TOTPService) CodeAt(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, validateOpts())
}

func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
