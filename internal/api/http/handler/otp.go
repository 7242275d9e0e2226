package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/service"
)

// OTPService defines passcode gated registration.
type OTPService interface {
	Request(ctx context.Context, email, name, purpose string) (service.OTPRequestResult, error)
	Verify(ctx context.Context, email, code, name, password string) (service.LoginResult, error)
	Resend(ctx context.Context, email string) (service.OTPRequestResult, error)
}

// OTP handles the /otp endpoints.
type OTP struct {
	otpService OTPService
	logger     *logger.Logger
}

// NewOTP creates a new OTP handler.
func NewOTP(otpService OTPService, logger *logger.Logger) *OTP {
	return &OTP{otpService: otpService, logger: logger}
}

type otpRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

func (h *OTP) Request(c *gin.Context) {
	var req otpRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.otpService.Request(c.Request.Context(), req.Email, req.Name, req.Purpose)
	if err != nil {
		h.logger.Warn("OTP handler: request failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOTPResponse(res))
}

type verifyRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *OTP) Verify(c *gin.Context) {
	var req verifyRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.otpService.Verify(c.Request.Context(), req.Email, req.OTP, req.Name, req.Password)
	if err != nil {
		h.logger.Warn("OTP handler: verification failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newLoginResponse("Registration successful!", res))
}

type resendRequest struct {
	Email string `json:"email"`
}

func (h *OTP) Resend(c *gin.Context) {
	var req resendRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.otpService.Resend(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Warn("OTP handler: resend failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOTPResponse(res))
}
