package services

import (
  "context"
  "fmt"
  "time"

  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/haven-labs/haven-backend/internal/authevents"
  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/normalization"
  "github.com/haven-labs/haven-backend/internal/repos"
  "github.com/haven-labs/haven-backend/internal/requestdata"
  "github.com/haven-labs/haven-backend/internal/types"
  "github.com/haven-labs/haven-backend/internal/utils"
)

type JWTClaims struct {
  jwt.RegisteredClaims
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  VerifyEmail(ctx context.Context, code string) error
  Login(ctx context.Context, email, password string) (string, string, error)
  Refresh(ctx context.Context) (string, string, error)
  Logout(ctx context.Context) error

  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

  GetAccessTTL() time.Duration
}

type authService struct {
  db              *gorm.DB
  log             *logger.Logger
  userRepo        repos.UserRepo
  userTokenRepo   repos.UserTokenRepo
  oneTimeCodeRepo repos.OneTimeCodeRepo
  emailService    EmailService
  eventHub        *authevents.Hub
  jwtSecretKey    string
  accessTTL       time.Duration
  refreshTTL      time.Duration
  appBaseURL      string
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  oneTimeCodeRepo repos.OneTimeCodeRepo,
  emailService EmailService,
  eventHub *authevents.Hub,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
  appBaseURL string,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:              db,
    log:             serviceLog,
    userRepo:        userRepo,
    userTokenRepo:   userTokenRepo,
    oneTimeCodeRepo: oneTimeCodeRepo,
    emailService:    emailService,
    eventHub:        eventHub,
    jwtSecretKey:    jwtSecretKey,
    accessTTL:       accessTTL,
    refreshTTL:      refreshTTL,
    appBaseURL:      appBaseURL,
  }
}

//----------------------------------------------------------------------------------------------------------------------
// RegisterUser, VerifyEmail
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  as.log.Info("Starting Register User now...")
  //1) Normalize User Fields
  utils.NormalizeUserFields(ctx, user)

  //2) Checks on user fields
  if vErr := utils.InputValidation(ctx, "registration", as.userRepo, as.log, user); vErr != nil {
    return vErr
  }

  //3) Hash Password
  if hErr := utils.HashPassword(ctx, as.log, user); hErr != nil {
    return hErr
  }

  //4) Transaction Body
  var verificationCode string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    user.ID = uuid.New()
    createdUsers, cUErr := as.userRepo.Create(ctx, tx, []*types.User{user})
    if cUErr != nil {
      as.log.Warn("Failed to create new user, Cannot proceed further. Returning error.", "error", cUErr)
      return fmt.Errorf("Failed to create new user: %w", cUErr)
    }
    if len(createdUsers) == 0 {
      as.log.Warn("Failure to actually create user from AuthService")
      return fmt.Errorf("Failure to create user in DB")
    }

    verificationCode = uuid.New().String()
    otCode := &types.OneTimeCode{
      ID:        uuid.New(),
      UserID:    user.ID,
      Code:      verificationCode,
      ExpiresAt: time.Now().Add(24 * time.Hour),
    }
    if _, cCErr := as.oneTimeCodeRepo.Create(ctx, tx, []*types.OneTimeCode{otCode}); cCErr != nil {
      as.log.Warn("Failed to create verification code, Cannot proceed further. Returning error.", "error", cCErr)
      return fmt.Errorf("Failed to create verification code: %w", cCErr)
    }
    return nil
  }); err != nil {
    return err
  }

  //5) Send Verification Email (best effort; registration already committed)
  if as.emailService != nil {
    verifyLink := fmt.Sprintf("%s/api/verify?code=%s", as.appBaseURL, verificationCode)
    if mErr := as.emailService.SendVerificationEmail(ctx, user.Email, verifyLink); mErr != nil {
      as.log.Warn("Failed to send verification email; user can request a new code later", "error", mErr, "email", user.Email)
    }
  }
  return nil
}

func (as *authService) VerifyEmail(ctx context.Context, code string) error {
  code = normalization.ParseInputString(code)
  if code == "" {
    as.log.Warn("Verification code is empty, Cannot proceed.")
    return fmt.Errorf("verification code is required.")
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundCodes, fCErr := as.oneTimeCodeRepo.GetByCodes(ctx, tx, []string{code})
    if fCErr != nil {
      as.log.Warn("Failed to fetch verification code, Cannot proceed. Returning error.", "error", fCErr)
      return fmt.Errorf("Failed to fetch verification code: %w", fCErr)
    }
    if len(foundCodes) == 0 {
      as.log.Warn("No verification code found, Cannot proceed.")
      return fmt.Errorf("invalid verification code.")
    }
    otCode := foundCodes[0]
    if otCode.Used {
      as.log.Warn("Verification code already used, Cannot proceed.", "codeID", otCode.ID)
      return fmt.Errorf("verification code already used.")
    }
    if otCode.ExpiresAt.Before(time.Now()) {
      as.log.Warn("Verification code expired, Cannot proceed.", "codeID", otCode.ID)
      return fmt.Errorf("verification code expired.")
    }
    if mErr := as.oneTimeCodeRepo.MarkUsed(ctx, tx, otCode.ID); mErr != nil {
      as.log.Warn("Failed to mark verification code used, Cannot proceed. Returning error.", "error", mErr)
      return fmt.Errorf("Failed to mark verification code used: %w", mErr)
    }
    if vErr := as.userRepo.MarkVerified(ctx, tx, otCode.UserID); vErr != nil {
      as.log.Warn("Failed to mark user verified, Cannot proceed. Returning error.", "error", vErr)
      return fmt.Errorf("Failed to mark user verified: %w", vErr)
    }
    return nil
  })
}

//----------------------------------------------------------------------------------------------------------------------
// Login, Refresh, Logout
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) Login(ctx context.Context, userEmail, userPassword string) (string, string, error) {
  //1) Normalize Input
  email := normalization.ParseEmail(userEmail)
  password := userPassword

  //2) Input Validations
  if vErr := utils.InputValidation(ctx, "login", as.userRepo, as.log, &types.User{Email: email, Password: password}); vErr != nil {
    return "", "", vErr
  }

  //3) Find User By Email
  users, uSErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if uSErr != nil {
    as.log.Warn("Failure to retrieve user by email, Cannot proceed. Returning error.", "error", uSErr)
    return "", "", fmt.Errorf("error retrieving user by email: %w", uSErr)
  }
  if len(users) == 0 {
    as.log.Warn("Invalid email, no users returned", "len(users)", len(users))
    return "", "", fmt.Errorf("invalid email or password")
  }
  user := users[0]
  if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); hErr != nil {
    as.log.Warn("Invalid password, user password and hash dont match, Cannot proceed. Returning error.", "error", hErr)
    return "", "", fmt.Errorf("invalid email or password")
  }
  if !user.Verified {
    as.log.Warn("User email not verified yet, Cannot proceed.", "userID", user.ID)
    return "", "", fmt.Errorf("email not verified. Please check your inbox for the verification link.")
  }

  //4) Issue Tokens. Concurrent sessions for one user are allowed (two tabs,
  //   two devices), so expired token rows are swept but live ones stay.
  var accessToken string
  var refreshToken string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, fTErr := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{user.ID})
    if fTErr != nil {
      as.log.Warn("Failed to check existing user tokens, Cannot proceed. Returning error.", "error", fTErr)
      return fmt.Errorf("Failed to check existing user tokens: %w", fTErr)
    }
    var expired []*types.UserToken
    for _, token := range foundTokens {
      if token != nil && token.ExpiresAt.Before(time.Now()) {
        expired = append(expired, token)
      }
    }
    if len(expired) > 0 {
      if dTErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, expired); dTErr != nil {
        as.log.Warn("Failed to delete expired user tokens, Cannot proceed. Returning error.", "error", dTErr)
        return fmt.Errorf("Failed to delete expired user tokens: %w", dTErr)
      }
    }
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      as.log.Warn("Generate Access Token Error, Cannot proceed. Returning error.", "error", genErr)
      return fmt.Errorf("Generate Access Token Error: %w", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    expiresAt := time.Now().Add(as.refreshTTL)
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    expiresAt,
    }
    _, cTErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken})
    if cTErr != nil {
      as.log.Warn("Create User Token Error, Cannot proceed. Returning error.", "error", cTErr)
      return fmt.Errorf("Create User Token Error: %w", cTErr)
    }
    return nil
  }); err != nil {
    return "", "", err
  }

  if as.eventHub != nil {
    as.eventHub.Broadcast(authevents.Event{Type: authevents.EventSignedIn, UserID: user.ID, At: time.Now()})
  }
  return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context) (string, string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No Request Data found in context, Cannot proceed")
    return "", "", fmt.Errorf("No Request Data found in context.")
  }
  if rd.RefreshToken == "" {
    as.log.Warn("RefreshToken in Request Data in context is an empty string, Cannot proceed")
    return "", "", fmt.Errorf("RefreshToken in Request Data in context is an empty string.")
  }

  var accessToken string
  var newRefreshTokenStr string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, fTErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
    if fTErr != nil {
      as.log.Warn("Error fetching refresh token, Cannot proceed. Returning error.", "error", fTErr)
      return fmt.Errorf("Error fetching refresh token: %w", fTErr)
    }
    if len(foundTokens) == 0 {
      as.log.Warn("No user token found for the given refresh token, Cannot proceed.")
      return fmt.Errorf("No user token found for the given refresh token.")
    }
    existingToken := foundTokens[0]

    if existingToken.ExpiresAt.Before(time.Now()) {
      if dTErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existingToken}); dTErr != nil {
        as.log.Warn("Refresh token expired, error deleting expired refresh token, Cannot proceed. Returning error.", "error", dTErr)
        return fmt.Errorf("Refresh token expired, error deleting: %w", dTErr)
      }
      as.log.Warn("Refresh Token Expired, Cannot proceed.")
      return fmt.Errorf("Refresh Token Expired.")
    }
    users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existingToken.UserID})
    if uErr != nil {
      as.log.Warn("Failed to load user for refresh, Cannot proceed. Returning error.", "error", uErr)
      return fmt.Errorf("Failed to load user for refresh: %w", uErr)
    }
    if len(users) == 0 {
      as.log.Warn("No user found for the given refresh token, Cannot proceed.", "len(users)", len(users))
      return fmt.Errorf("No user found for the given refresh token.")
    }
    user := users[0]
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      as.log.Warn("Failed to generate new access token, Cannot proceed. Returning error.", "error", genErr)
      return fmt.Errorf("Failed to generate new access token: %w", genErr)
    }
    accessToken = tok
    newRefreshTokenStr = uuid.New().String()
    newExpiresAt := time.Now().Add(as.refreshTTL)
    newUserToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  tok,
      RefreshToken: newRefreshTokenStr,
      ExpiresAt:    newExpiresAt,
    }
    _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&newUserToken})
    if cErr != nil {
      as.log.Warn("Failed to create new user token, Cannot proceed. Returning error.", "error", cErr)
      return fmt.Errorf("Failed to create new user token: %w", cErr)
    }
    if dErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existingToken}); dErr != nil {
      as.log.Warn("Failed to remove old refresh token, Cannot proceed. Returning error.", "error", dErr)
      return fmt.Errorf("Failed to remove old refresh token: %w", dErr)
    }
    return nil
  })
  if err != nil {
    as.log.Warn("Failed transaction, Cannot proceed. Returning error.", "error", err)
    return "", "", err
  }
  return accessToken, newRefreshTokenStr, nil
}

func (as *authService) Logout(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No Request Data found in context, Cannot proceed.")
    return fmt.Errorf("No Request Data found in context.")
  }
  if rd.TokenString == "" {
    as.log.Warn("TokenString in Request Data is an empty string, Cannot proceed.")
    return fmt.Errorf("TokenString in RequestData is an empty string.")
  }
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, fTErr := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
    if fTErr != nil {
      as.log.Warn("Error finding user token from token string, Cannot proceed. Returning error.", "error", fTErr)
      return fmt.Errorf("Error finding user token from token string: %w", fTErr)
    }
    if len(foundTokens) == 0 {
      as.log.Warn("No user token found for token string, nothing to delete.")
      return nil
    }
    if tDErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, foundTokens); tDErr != nil {
      as.log.Warn("Error deleting user token, Cannot proceed. Returning error.", "error", tDErr)
      return fmt.Errorf("Error deleting user token: %w", tDErr)
    }
    return nil
  }); err != nil {
    return err
  }

  // Signed-out notification must reach every tab of this user so they can
  // clear their transcript and leave authenticated views.
  if as.eventHub != nil {
    as.eventHub.Broadcast(authevents.Event{Type: authevents.EventSignedOut, UserID: rd.UserID, At: time.Now()})
  }
  return nil
}

//----------------------------------------------------------------------------------------------------------------------
// Tokens
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
      // Unique per token so two logins in the same second never mint the
      // same signed string.
      ID:        uuid.New().String(),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, nil
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("invalid or expired JWT token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("invalid user ID in token: %w", err)
  }
  var refreshTokenStr string
  foundTokens, fTErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
  if fTErr != nil {
    as.log.Warn("Error fetching user token by access token, Cannot proceed. Returning error.", "error", fTErr)
    return ctx, fmt.Errorf("Failed to fetch user token by access token: %w", fTErr)
  }
  if len(foundTokens) == 0 {
    // Token row gone means the session was revoked (logout) even though the
    // JWT itself has not expired yet.
    return ctx, fmt.Errorf("session revoked")
  }
  refreshTokenStr = foundTokens[0].RefreshToken
  rd := &requestdata.RequestData{
    TokenString:  tokenString,
    RefreshToken: refreshTokenStr,
    UserID:       userID,
  }
  ctx = requestdata.WithRequestData(ctx, rd)
  return ctx, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
