package authService

import (
	"Focus2026/internal/api/auth"
	"Focus2026/pkg/bcrypt"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultTokenTTL = 24 * time.Hour

type IAuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error)
}

// Config describes the single dashboard owner. PassphraseHash is a bcrypt
// hash, usually DASHBOARD_PASSPHRASE_HASH.
type Config struct {
	PassphraseHash string
	Subject        string
	TokenTTL       time.Duration
}

type authService struct {
	log         *logrus.Logger
	bcryptUtils bcrypt.IBcrypt
	cfg         Config
}

func NewAuthService(log *logrus.Logger, bcryptUtils bcrypt.IBcrypt, cfg Config) IAuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Subject == "" {
		cfg.Subject = "owner"
	}

	return &authService{
		log:         log,
		bcryptUtils: bcryptUtils,
		cfg:         cfg,
	}
}
