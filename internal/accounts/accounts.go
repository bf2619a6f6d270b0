package accounts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
	"github.com/millbrook-county/civic-portal/backend/internal/notify"
	"github.com/millbrook-county/civic-portal/backend/internal/verify"
)

var (
	ErrIdentityNotVerified    = errors.New("identity could not be verified")
	ErrUsernameTaken          = errors.New("username already exists")
	ErrVoterAlreadyRegistered = errors.New("an account already exists for this voter")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrNoAccountForVoter      = errors.New("no account found for this voter")
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

const tokenTTL = 72 * time.Hour

// Service owns application accounts. Every account is linked 1:1 to a voter
// registry entry via its voter ID; the link is established at signup through
// the identity verifier and enforced by the unique constraint on voter_id.
type Service struct {
	db       *gorm.DB
	verifier *verify.Verifier
	sender   notify.Sender
}

func NewService(db *gorm.DB, verifier *verify.Verifier, sender notify.Sender) *Service {
	return &Service{db: db, verifier: verifier, sender: sender}
}

// SignUp verifies the claimed identity against the registry, then creates an
// account with the district copied from the verification result. The full
// name doubles as the registry last-name claim, matching the portal's signup
// form.
func (s *Service) SignUp(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	result, err := s.verifier.Verify(ctx, req.VoterID, req.FullName, req.SecondaryFactor)
	if errors.Is(err, verify.ErrNoMatch) {
		return nil, ErrIdentityNotVerified
	}
	if err != nil {
		return nil, err
	}

	var existing models.Account
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}
	if err := s.db.WithContext(ctx).Where("voter_id = ?", req.VoterID).First(&existing).Error; err == nil {
		return nil, ErrVoterAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := models.Account{
		VoterID:      req.VoterID,
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		District:     result.District,
		Avatar:       req.Avatar,
		NotifyEmail:  req.NotifyEmail,
		NotifyPhone:  req.NotifyPhone,
		SMSOptIn:     req.SMSOptIn,
	}

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		// The unique constraints on username and voter_id are the backstop
		// for concurrent signups racing past the pre-checks.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrVoterAlreadyRegistered
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return &account, nil
}

// LogIn authenticates by username and password. Unknown username and wrong
// password return the same error so usernames cannot be enumerated.
func (s *Service) LogIn(ctx context.Context, username, password string) (*models.Account, string, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(&account)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	return &account, token, nil
}

// GetByID loads an account by primary key.
func (s *Service) GetByID(ctx context.Context, accountID int) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// RequestPasswordReset re-verifies the claimed identity, overwrites the
// stored hash with a fresh temporary credential, and hands the credential to
// the out-of-band sender. The credential is also returned so the handler can
// echo it in development mode only.
func (s *Service) RequestPasswordReset(ctx context.Context, lastName, voterID, secondaryFactor string) (string, error) {
	_, err := s.verifier.Verify(ctx, voterID, lastName, secondaryFactor)
	if errors.Is(err, verify.ErrNoMatch) {
		return "", ErrIdentityNotVerified
	}
	if err != nil {
		return "", err
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("voter_id = ?", voterID).First(&account).Error; err != nil {
		return "", ErrNoAccountForVoter
	}

	temp, err := GenerateTempCredential(tempCredentialLength)
	if err != nil {
		return "", fmt.Errorf("generating temp credential: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing temp credential: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&account).Update("password_hash", string(hash)).Error; err != nil {
		return "", fmt.Errorf("storing temp credential: %w", err)
	}

	if err := s.sender.SendTempCredential(ctx, &account, temp); err != nil {
		// The hash is already rotated; a delivery failure is logged, not
		// surfaced, so the caller cannot tell whether the account exists
		// from the delivery path.
		log.Printf("temp credential delivery failed for account %d: %v", account.ID, err)
	}

	return temp, nil
}

func (s *Service) issueToken(account *models.Account) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  account.ID,
		"username": account.Username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}
