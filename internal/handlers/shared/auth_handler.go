package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"goclean/internal/middleware"
	"goclean/internal/models"
	"goclean/internal/services"
	"goclean/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService   services.AuthService
	maxUploadSize int64
}

func NewAuthHandler(authService services.AuthService, maxUploadSize int64) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		maxUploadSize: maxUploadSize,
	}
}

// Register starts a registration and emails the verification code
func (h *AuthHandler) Register(c *gin.Context) {
	var request services.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Registration started. Please verify your email.", response)
}

// VerifyOTP checks a verification or password reset code
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var request services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if request.Purpose == "" {
		request.Purpose = models.OTPPurposeEmailVerify
	}

	response, err := h.authService.VerifyOTP(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP verified successfully", response)
}

// VerifyForgotPasswordOTP is the password reset branch of VerifyOTP
func (h *AuthHandler) VerifyForgotPasswordOTP(c *gin.Context) {
	var request services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	request.Purpose = models.OTPPurposePasswordReset

	response, err := h.authService.VerifyOTP(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP verified successfully", response)
}

// CompleteRegistration accepts either JSON or a multipart form carrying the
// identity documents.
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}

	var request services.CompleteRegistrationRequest
	if err := c.ShouldBind(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Uploaded files are too large")
			return
		}
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		documents, err := readDocuments(c)
		if err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}
		request.Documents = documents
	}

	user, err := h.authService.CompleteRegistration(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Registration completed successfully", user)
}

func readDocuments(c *gin.Context) (*services.DocumentUploads, error) {
	uploads := &services.DocumentUploads{}
	fields := []struct {
		name   string
		target **services.UploadedFile
	}{
		{"profilePicture", &uploads.ProfilePicture},
		{"nidFront", &uploads.NIDFront},
		{"nidBack", &uploads.NIDBack},
		{"selfieWithNid", &uploads.SelfieWithNID},
	}

	for _, field := range fields {
		header, err := c.FormFile(field.name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, errors.New("invalid upload for " + field.name)
		}
		if !utils.IsImageFile(header.Filename) {
			return nil, errors.New("unsupported file type for " + field.name)
		}

		file, err := readUpload(header)
		if err != nil {
			return nil, errors.New("invalid upload for " + field.name)
		}
		*field.target = file
	}

	return uploads, nil
}

func readUpload(header *multipart.FileHeader) (*services.UploadedFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &services.UploadedFile{Filename: header.Filename, Data: data}, nil
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var request services.ResendOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if request.Purpose == "" {
		request.Purpose = models.OTPPurposeEmailVerify
	}

	response, err := h.authService.ResendOTP(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP sent successfully", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request services.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

// ValidateToken never fails; an unusable token reports is_valid false.
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	var request struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&request)
	if request.Token == "" {
		request.Token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	utils.SuccessResponse(c, "Token checked", h.authService.ValidateToken(c.Request.Context(), request.Token))
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var request services.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	response, err := h.authService.ForgotPassword(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Password reset code sent", response)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var request services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Password reset successfully", nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Password changed successfully", nil)
}
