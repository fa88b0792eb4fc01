package authService

import (
	"Focus2026/internal/api/auth"
	"Focus2026/pkg/bcrypt"
	contextPkg "Focus2026/pkg/context"
	jwtPkg "Focus2026/pkg/jwt"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *authService) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !s.bcryptUtils.IsHash(s.cfg.PassphraseHash) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("Login attempted without a passphrase hash configured")
		return auth.LoginResponse{}, auth.ErrAuthNotConfigured
	}

	if err := s.bcryptUtils.ComparePassword(s.cfg.PassphraseHash, req.Passphrase); err != nil {
		if errors.Is(err, bcrypt.ErrMismatch) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn("Passphrase comparison failed")
			return auth.LoginResponse{}, auth.ErrInvalidPassphrase
		}
		return auth.LoginResponse{}, err
	}

	token, expired, err := jwtPkg.Sign(map[string]interface{}{"sub": s.cfg.Subject}, s.cfg.TokenTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign token")
		return auth.LoginResponse{}, auth.ErrAuthNotConfigured
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"subject":    s.cfg.Subject,
	}).Info("Token created")

	return auth.LoginResponse{
		AccessToken:      token,
		ExpiresInMinutes: time.Until(time.Unix(expired, 0)).Minutes(),
	}, nil
}
