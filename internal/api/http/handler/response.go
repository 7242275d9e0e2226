package handler

import (
	"fmt"
	"time"

	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/service"
)

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         model.UserSummary `json:"user"`
}

func newLoginResponse(message string, res service.LoginResult) loginResponse {
	return loginResponse{
		Success:      true,
		Message:      message,
		Token:        res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		User:         res.User.Summary(),
	}
}

type sessionResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type otpResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresIn string `json:"expiresIn"`
	OTP       string `json:"otp,omitempty"`
}

func newOTPResponse(res service.OTPRequestResult) otpResponse {
	return otpResponse{
		Success:   true,
		Message:   res.Message,
		ExpiresIn: humanMinutes(res.ExpiresIn),
		OTP:       res.Code,
	}
}

func humanMinutes(d time.Duration) string {
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

type userResponse struct {
	User model.UserSummary `json:"user"`
}

type feedbackCreatedResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	ID      string    `json:"id"`
	At      time.Time `json:"submittedAt"`
}

type healthResponse struct {
	Status string `json:"status"`
}
