package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userRepo "samayog/database/repository/user"
	"samayog/middleware"
	"samayog/models"
	"samayog/services/auth"
	"samayog/utils"
)

// SendOTPHandler issues a one-time code for a phone number.
func (hb *HandlerBundle) SendOTPHandler(c *gin.Context) {
	logger := hb.getLogger(c)

	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	phone, err := auth.NormalizePhone(req.Phone)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_phone", auth.MsgPhoneLength)
		return
	}
	if hb.OTPLimiter != nil && !hb.OTPLimiter.Allow(phone) {
		logger.Warn("OTP rate limit exceeded", zap.String("phone", maskPhone(phone)))
		utils.JSONError(c, http.StatusTooManyRequests, "rate_limited", "Too many OTP requests")
		return
	}

	code, err := utils.GenerateOTP(utils.OTPLength)
	if err != nil {
		logger.Error("Failed to generate OTP", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to generate OTP")
		return
	}
	if err := hb.OTPs.Save(c.Request.Context(), phone, code, utils.OTPTTL); err != nil {
		logger.Error("Failed to store OTP", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to store OTP")
		return
	}
	logger.Info("OTP issued", zap.String("phone", maskPhone(phone)))

	var reply models.SendOTPReply
	reply.Msg = "OTP sent successfully"
	if !hb.Production {
		reply.Data.OTP = code
	}
	c.JSON(http.StatusOK, reply)
}

// VerifyOTPHandler exchanges a valid code for a session token, creating the
// user on first login.
func (hb *HandlerBundle) VerifyOTPHandler(c *gin.Context) {
	logger := hb.getLogger(c)
	ctx := c.Request.Context()

	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	phone, err := auth.NormalizePhone(req.Phone)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_phone", auth.MsgPhoneLength)
		return
	}

	if hb.Production || req.Code != auth.MockOTP {
		switch err := hb.OTPs.Verify(ctx, phone, req.Code); {
		case errors.Is(err, utils.ErrOTPMismatch):
			utils.JSONError(c, http.StatusBadRequest, models.CodeOTPInvalid, "Invalid OTP")
			return
		case errors.Is(err, utils.ErrOTPExpired):
			utils.JSONError(c, http.StatusBadRequest, models.CodeOTPExpired, "OTP expired or not found")
			return
		case err != nil:
			logger.Error("OTP verification failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to verify OTP")
			return
		}
	}

	user, err := hb.Users.GetByPhone(ctx, phone)
	if errors.Is(err, userRepo.ErrNotFound) {
		user = &models.User{ID: uuid.NewString(), Phone: phone}
		err = hb.Users.Create(ctx, user)
	}
	if err != nil {
		logger.Error("Failed to load user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to load user")
		return
	}

	token, err := hb.Tokens.Issue(user.ID, user.Phone)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to issue token")
		return
	}
	logger.Info("User verified", zap.String("userId", user.ID))
	c.JSON(http.StatusOK, models.VerifyOTPReply{
		Msg:   "OTP verified successfully",
		Token: token,
		User:  user.ServerUser(),
	})
}

// SignupHandler registers a user and signs them in.
func (hb *HandlerBundle) SignupHandler(c *gin.Context) {
	logger := hb.getLogger(c)

	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	phone, err := auth.NormalizePhone(req.Phone)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_phone", auth.MsgPhoneLength)
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing_field", "First name is required")
		return
	}

	user := &models.User{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     phone,
		Email:     req.Email,
		DOB:       req.DOB,
		Gender:    req.Gender,
		City:      req.City,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to create account")
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := hb.Users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, userRepo.ErrDuplicate) {
			utils.JSONError(c, http.StatusConflict, "user_exists", "An account with this phone number already exists")
			return
		}
		logger.Error("Failed to create user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to create account")
		return
	}

	token, err := hb.Tokens.Issue(user.ID, user.Phone)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to issue token")
		return
	}
	logger.Info("User signed up", zap.String("userId", user.ID))

	var env models.AuthEnvelope
	env.Success = true
	env.Message = "Signup successful"
	env.Data.Token = token
	env.Data.User = user.ServerUser()
	c.JSON(http.StatusCreated, env)
}

// LogoutHandler revokes the presented token.
func (hb *HandlerBundle) LogoutHandler(c *gin.Context) {
	logger := hb.getLogger(c)
	if err := hb.revokeCurrent(c); err != nil {
		logger.Error("Failed to revoke token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// RefreshTokenHandler swaps the presented token for a fresh one.
func (hb *HandlerBundle) RefreshTokenHandler(c *gin.Context) {
	logger := hb.getLogger(c)
	ctx := c.Request.Context()
	userID := c.GetString(middleware.ContextUserID)

	user, err := hb.Users.GetByID(ctx, userID)
	if err != nil {
		hb.userLookupError(c, err)
		return
	}
	token, err := hb.Tokens.Issue(user.ID, user.Phone)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to issue token")
		return
	}
	if err := hb.revokeCurrent(c); err != nil {
		logger.Warn("Failed to revoke replaced token", zap.Error(err))
	}

	var env models.AuthEnvelope
	env.Success = true
	env.Message = "Token refreshed"
	env.Data.Token = token
	env.Data.User = user.ServerUser()
	c.JSON(http.StatusOK, env)
}

// GetProfileHandler returns the authenticated user's profile.
func (hb *HandlerBundle) GetProfileHandler(c *gin.Context) {
	user, err := hb.Users.GetByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		hb.userLookupError(c, err)
		return
	}
	var env models.AuthEnvelope
	env.Success = true
	env.Message = "Profile fetched"
	env.Data.User = user.ServerUser()
	c.JSON(http.StatusOK, env)
}

func (hb *HandlerBundle) revokeCurrent(c *gin.Context) error {
	token := c.GetString(middleware.ContextToken)
	v, _ := c.Get(middleware.ContextClaims)
	claims, ok := v.(*utils.TokenClaims)
	if token == "" || !ok {
		return nil
	}
	return hb.Revoked.Revoke(c.Request.Context(), token, claims.ExpiresAt)
}

func (hb *HandlerBundle) userLookupError(c *gin.Context, err error) {
	if errors.Is(err, userRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusUnauthorized, "user_not_found", "User no longer exists")
		return
	}
	hb.getLogger(c).Error("Failed to load user", zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to load user")
}

func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
