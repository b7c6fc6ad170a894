package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/logger"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/security"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

const (
	defaultOTPTTL       = 5 * time.Minute
	defaultVerifyTTL    = 5 * time.Minute
	defaultUserCacheTTL = time.Hour
	otpLength           = 6
	verifyTokenBytes    = 32
)

// AuthService orchestrates registration, the two-step login, and per-request
// authentication over the session registry.
type AuthService struct {
	users    port.UserRepository
	cache    port.UserCache
	otps     port.OTPStore
	regs     port.RegistrationStore
	codec    *security.TokenCodec
	sessions *SessionService
	notifier port.NotificationSender
	events   port.EventPublisher
	logger   *zap.Logger

	otpTTL       time.Duration
	verifyTTL    time.Duration
	userCacheTTL time.Duration
	now          func() time.Time
}

// AuthServiceOptions carries the dependencies and tunables for AuthService.
type AuthServiceOptions struct {
	Users        port.UserRepository
	Cache        port.UserCache
	OTPs         port.OTPStore
	Registration port.RegistrationStore
	Codec        *security.TokenCodec
	Sessions     *SessionService
	Notifier     port.NotificationSender
	Events       port.EventPublisher
	Logger       *zap.Logger
	OTPTTL       time.Duration
	VerifyTTL    time.Duration
	UserCacheTTL time.Duration
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	svc := &AuthService{
		users:        opts.Users,
		cache:        opts.Cache,
		otps:         opts.OTPs,
		regs:         opts.Registration,
		codec:        opts.Codec,
		sessions:     opts.Sessions,
		notifier:     opts.Notifier,
		events:       opts.Events,
		logger:       log,
		otpTTL:       opts.OTPTTL,
		verifyTTL:    opts.VerifyTTL,
		userCacheTTL: opts.UserCacheTTL,
	}
	if svc.otpTTL <= 0 {
		svc.otpTTL = defaultOTPTTL
	}
	if svc.verifyTTL <= 0 {
		svc.verifyTTL = defaultVerifyTTL
	}
	if svc.userCacheTTL <= 0 {
		svc.userCacheTTL = defaultUserCacheTTL
	}
	svc.now = func() time.Time { return time.Now().UTC() }
	return svc
}

// WithClock overrides the service clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register validates the registration, stages it in the pending store, and
// asks the notifier to deliver the verification link. The user row is not
// created until the link is redeemed.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return fmt.Errorf("name and email are required")
	}

	if err := security.ValidatePassword(password, name, email); err != nil {
		return err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	token, err := security.GenerateSecureToken(verifyTokenBytes)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	pending := domain.PendingRegistration{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.regs.Store(ctx, token, pending, s.verifyTTL); err != nil {
		return fmt.Errorf("stage registration: %w", err)
	}

	if err := s.notifier.SendVerificationLink(ctx, email, token); err != nil {
		return fmt.Errorf("send verification link: %w", err)
	}

	s.logger.Info("registration staged", zap.String("email", logger.MaskEmail(email)))
	return nil
}

// VerifyEmail consumes a verification token and creates the user record.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	pending, err := s.regs.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVerificationExpired
		}
		return nil, fmt.Errorf("consume registration: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         domain.RoleUser,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Login checks credentials and stages the OTP second factor. Unknown emails
// and wrong passwords return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	code, err := security.GenerateNumericCode(otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.otps.Store(ctx, email, code, s.otpTTL); err != nil {
		return fmt.Errorf("stage otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	s.logger.Info("otp staged", zap.String("email", logger.MaskEmail(email)))
	return nil
}

// VerifyOTP consumes the passcode and, on success, establishes a fresh
// session for the user (replacing any prior active one).
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string, device domain.DeviceInfo) (*domain.User, *domain.SessionCredentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return nil, nil, ErrInvalidOTP
	}

	stored, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrOTPExpired
		}
		return nil, nil, fmt.Errorf("load otp: %w", err)
	}

	if !security.ConstantTimeEquals(stored, code) {
		return nil, nil, ErrInvalidOTP
	}

	if err := s.otps.Delete(ctx, email); err != nil {
		return nil, nil, fmt.Errorf("consume otp: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	creds, err := s.sessions.CreateSession(ctx, user.ID, device, "")
	if err != nil {
		return nil, nil, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, port.EventUserLogin, port.SecurityEvent{
			UserID:    user.ID,
			SessionID: creds.SessionID,
			IP:        logger.MaskIP(device.IP),
			At:        s.now(),
		}); err != nil {
			s.logger.Warn("publish login event failed", zap.Error(err))
		}
	}

	return user, creds, nil
}

// Authenticate verifies an access token against the codec and the session
// registry, refreshes the session's activity stamp, and resolves the user via
// the cache-then-store path. This backs the auth middleware on every request.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, *security.SessionClaims, error) {
	if accessToken == "" {
		return nil, nil, ErrAccessTokenMissing
	}

	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, nil, ErrAccessTokenExpired
		}
		return nil, nil, ErrAccessTokenInvalid
	}

	active, err := s.sessions.VerifyActiveSession(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if !active {
		return nil, nil, ErrSessionInvalidated
	}

	s.sessions.TouchSession(ctx, claims.SessionID)

	user, err := s.resolveUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}

	return user, claims, nil
}

func (s *AuthService) resolveUser(ctx context.Context, userID string) (*domain.User, error) {
	if cached, err := s.cache.Get(ctx, userID); err == nil {
		return cached, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("user cache read failed", zap.Error(err))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.cache.Set(ctx, *user, s.userCacheTTL); err != nil {
		s.logger.Warn("user cache write failed", zap.Error(err))
	}

	return user, nil
}
