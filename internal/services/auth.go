package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/repos"
  "github.com/taskchat-org/taskchat-backend/internal/requestdata"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

type JWTClaims struct {
  jwt.RegisteredClaims
  Email     string `json:"email,omitempty"`
  TokenType string `json:"token_type,omitempty"`
}

type AuthService interface {
  Register(ctx context.Context, email, password, name string) (*types.User, error)
  Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
  Refresh(ctx context.Context, refreshToken string) (string, string, error)
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  jwtSecretKey string
  accessTTL    time.Duration
  refreshTTL   time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  return &authService{
    db:           db,
    log:          log.With("service", "AuthService"),
    userRepo:     userRepo,
    jwtSecretKey: jwtSecretKey,
    accessTTL:    accessTTL,
    refreshTTL:   refreshTTL,
  }
}

func (as *authService) Register(ctx context.Context, email, password, name string) (*types.User, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" || !strings.Contains(email, "@") {
    return nil, apperr.New(apperr.CodeValidation, "a valid email is required to register")
  }
  if len(password) < 8 {
    return nil, apperr.New(apperr.CodeValidation, "password must be at least 8 characters")
  }
  if strings.TrimSpace(name) == "" {
    return nil, apperr.New(apperr.CodeValidation, "a name is required to register")
  }
  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, err
  }
  if exists {
    return nil, apperr.New(apperr.CodeValidation, "an account with this email already exists")
  }
  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, fmt.Errorf("failed to hash password: %w", err)
  }
  user := &types.User{
    Email:    email,
    Password: string(hashed),
    Name:     strings.TrimSpace(name),
  }
  created, err := as.userRepo.Create(ctx, nil, user)
  if err != nil {
    return nil, err
  }
  as.log.Info("user registered", "userID", created.ID)
  return created, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    // Same failure whether the account is missing or the password is
    // wrong.
    return "", "", apperr.New(apperr.CodeUnauthorized, "invalid email or password")
  }
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", "", apperr.New(apperr.CodeUnauthorized, "invalid email or password")
  }
  access, err := as.generateToken(user, "access", as.accessTTL)
  if err != nil {
    return "", "", err
  }
  refresh, err := as.generateToken(user, "refresh", as.refreshTTL)
  if err != nil {
    return "", "", err
  }
  return access, refresh, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
  claims, err := as.parseToken(refreshToken)
  if err != nil {
    return "", "", err
  }
  if claims.TokenType != "refresh" {
    return "", "", apperr.New(apperr.CodeUnauthorized, "not a refresh token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return "", "", apperr.New(apperr.CodeUnauthorized, "invalid token subject")
  }
  user, err := as.userRepo.GetByID(ctx, nil, userID)
  if err != nil {
    return "", "", apperr.New(apperr.CodeUnauthorized, "unknown user")
  }
  access, err := as.generateToken(user, "access", as.accessTTL)
  if err != nil {
    return "", "", err
  }
  refresh, err := as.generateToken(user, "refresh", as.refreshTTL)
  if err != nil {
    return "", "", err
  }
  return access, refresh, nil
}

// SetContextFromToken verifies an access token and installs the
// caller's identity into the context for everything downstream.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  claims, err := as.parseToken(tokenString)
  if err != nil {
    return ctx, err
  }
  if claims.TokenType != "access" {
    return ctx, apperr.New(apperr.CodeUnauthorized, "not an access token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, apperr.New(apperr.CodeUnauthorized, "invalid token subject")
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Email:       claims.Email,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) generateToken(user *types.User, tokenType string, ttl time.Duration) (string, error) {
  now := time.Now()
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      IssuedAt:  jwt.NewNumericDate(now),
      ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
    },
    Email:     user.Email,
    TokenType: tokenType,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString([]byte(as.jwtSecretKey))
  if err != nil {
    return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
  }
  return signed, nil
}

func (as *authService) parseToken(tokenString string) (*JWTClaims, error) {
  claims := &JWTClaims{}
  token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil || !token.Valid {
    return nil, apperr.New(apperr.CodeUnauthorized, "invalid or expired token")
  }
  return claims, nil
}
