package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/email"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 15 * time.Minute
	defaultJWTTTL   = 24 * time.Hour
)

type AuthUsecase struct {
	users      repository.UserRepository
	email      email.Sender
	clock      domain.Clock
	jwtKey     []byte
	tokenTTL   time.Duration
	jwtTTL     time.Duration
	signInBase string
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, clock domain.Clock, jwtKey []byte, signInBase string) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		email:      emailSender,
		clock:      clock,
		jwtKey:     jwtKey,
		tokenTTL:   defaultTokenTTL,
		jwtTTL:     defaultJWTTTL,
		signInBase: signInBase,
	}
}

// RequestSignIn finds or creates the user, generates a secure token, stores
// its hash, and emails the sign-in link.
func (u *AuthUsecase) RequestSignIn(ctx context.Context, emailAddr string) error {
	user, err := u.users.FindOrCreate(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	expiresAt := u.clock.Now().Add(u.tokenTTL)
	if err = u.users.CreateSignInToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("store sign-in token: %w", err)
	}

	link := u.signInBase + "/auth/verify?token=" + rawToken
	subject := "Your Glyloop sign-in link"
	body := fmt.Sprintf(
		`<p>Click the link below to sign in (expires in 15 minutes):</p><p><a href="%s">%s</a></p>`,
		link, link,
	)
	if err = u.email.Send(ctx, emailAddr, subject, body); err != nil {
		return fmt.Errorf("send sign-in link: %w", err)
	}
	return nil
}

// VerifySignIn hashes the raw token, atomically claims it, and returns a signed JWT.
func (u *AuthUsecase) VerifySignIn(ctx context.Context, rawToken string) (string, error) {
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	st, err := u.users.ClaimSignInToken(ctx, tokenHash)
	if err != nil {
		return "", domain.ErrTokenInvalid
	}

	user, err := u.users.FindByID(ctx, st.UserID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	now := u.clock.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(u.jwtTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
