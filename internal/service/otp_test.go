package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/repository/memory"
	"github.com/dtroode/feedback-server/internal/testutil"
)

type otpFixture struct {
	users      *fakeUserStore
	challenges *memory.Store[model.Challenge]
	mailer     *fakeMailer
	otp        *OTP
	clock      time.Time
}

func newOTPFixture(t *testing.T, exposeCode bool) *otpFixture {
	t.Helper()
	f := &otpFixture{
		users:      newFakeUserStore(),
		challenges: memory.NewStore[model.Challenge](),
		mailer:     newFakeMailer(),
		clock:      time.Now(),
	}
	tokens, _ := newTestTokenService(t)
	f.otp = NewOTP(f.challenges, f.users, tokens, testHasher, f.mailer, exposeCode, testutil.MakeNoopLogger())
	f.otp.now = func() time.Time { return f.clock }
	return f
}

func (f *otpFixture) challenge(t *testing.T, email string) model.Challenge {
	t.Helper()
	c, err := f.challenges.Get(context.Background(), email)
	require.NoError(t, err)
	return c
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestOTP_Request(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	res, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent successfully to your email", res.Message)
	assert.Equal(t, 5*time.Minute, res.ExpiresIn)
	assert.Empty(t, res.Code)

	c := f.challenge(t, "a@x.com")
	assert.Len(t, c.Code, 6)
	assert.Equal(t, f.mailer.lastCode("a@x.com"), c.Code)
	assert.Equal(t, model.PurposeRegistration, c.Purpose)
	assert.Equal(t, "Ann", c.Name)
	assert.Equal(t, 0, c.Attempts)
	assert.Equal(t, f.clock.Add(model.OTPLifetime), c.ExpiresAt)
	assert.Equal(t, 1, f.challenges.Len())
}

func TestOTP_Request_ExposeCode(t *testing.T) {
	f := newOTPFixture(t, true)

	res, err := f.otp.Request(context.Background(), "a@x.com", "Ann", "")
	require.NoError(t, err)
	assert.Equal(t, f.challenge(t, "a@x.com").Code, res.Code)
}

func TestOTP_Request_Validation(t *testing.T) {
	f := newOTPFixture(t, false)

	for _, email := range []string{"", "nope", "a@b"} {
		_, err := f.otp.Request(context.Background(), email, "Ann", "")
		require.ErrorIs(t, err, errOTPEmailInvalid, email)
	}
	assert.Equal(t, 0, f.challenges.Len())
}

func TestOTP_Request_AlreadyRegistered(t *testing.T) {
	f := newOTPFixture(t, false)
	f.users.put(model.User{Email: "a@x.com"})

	_, err := f.otp.Request(context.Background(), "A@x.com", "Ann", "registration")
	require.ErrorIs(t, err, errAlreadyRegistered)
	assert.Equal(t, 0, f.challenges.Len())

	_, err = f.otp.Request(context.Background(), "a@x.com", "Ann", "login")
	require.NoError(t, err)
}

func TestOTP_Request_MailFailureStillSucceeds(t *testing.T) {
	f := newOTPFixture(t, false)
	f.mailer.err = assert.AnError

	res, err := f.otp.Request(context.Background(), "a@x.com", "Ann", "")
	require.NoError(t, err)
	assert.Equal(t, "OTP generated successfully", res.Message)
	assert.Empty(t, res.Code)
	f.challenge(t, "a@x.com")
}

func TestOTP_Request_ReplacesChallenge(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	first := f.challenge(t, "a@x.com")

	_, err = f.otp.Verify(ctx, "a@x.com", wrongCode(first.Code), "Ann", "pw")
	require.Error(t, err)
	assert.Equal(t, 1, f.challenge(t, "a@x.com").Attempts)

	f.clock = f.clock.Add(time.Minute)
	_, err = f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)

	second := f.challenge(t, "a@x.com")
	assert.Equal(t, 0, second.Attempts)
	assert.Equal(t, f.clock.Add(model.OTPLifetime), second.ExpiresAt)
	assert.Equal(t, 1, f.challenges.Len())
}

func TestOTP_Verify_Success(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	code := f.challenge(t, "a@x.com").Code

	res, err := f.otp.Verify(ctx, "a@x.com", code, "", "secret")
	require.NoError(t, err)

	assert.NotEmpty(t, res.Session.AccessToken)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, "Ann", res.User.Name)
	assert.True(t, res.User.Verified)
	require.NotNil(t, res.User.PasswordHash)
	assert.NotEqual(t, "secret", *res.User.PasswordHash)

	_, err = f.challenges.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)

	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.Verified)
}

func TestOTP_Verify_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	code := f.challenge(t, "a@x.com").Code

	_, err = f.otp.Verify(ctx, "a@x.com", code, "", strings.Repeat("p", 73))
	require.ErrorIs(t, err, errPasswordTooLong)
	apiErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, apiErr.Kind)

	c := f.challenge(t, "a@x.com")
	assert.Equal(t, code, c.Code)
	assert.Equal(t, 0, c.Attempts)

	_, err = f.otp.Verify(ctx, "a@x.com", code, "", strings.Repeat("p", 72))
	require.NoError(t, err)
}

func TestOTP_Verify_NameOverride(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)

	res, err := f.otp.Verify(ctx, "a@x.com", f.challenge(t, "a@x.com").Code, "Annie", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Annie", res.User.Name)
}

func TestOTP_Verify_WrongCodeUntilGone(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	wrong := wrongCode(f.challenge(t, "a@x.com").Code)

	for attempt := 1; attempt <= 2; attempt++ {
		_, err = f.otp.Verify(ctx, "a@x.com", wrong, "Ann", "pw")
		require.ErrorIs(t, err, errInvalidCode(model.OTPMaxAttempts-attempt))
		assert.Equal(t, attempt, f.challenge(t, "a@x.com").Attempts)
	}

	_, err = f.otp.Verify(ctx, "a@x.com", wrong, "Ann", "pw")
	require.ErrorIs(t, err, errInvalidCode(0))
	assert.Equal(t, "Invalid OTP. 0 attempts remaining.", err.Error())

	_, err = f.challenges.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.otp.Verify(ctx, "a@x.com", wrong, "Ann", "pw")
	require.ErrorIs(t, err, errNoChallenge)
	assert.Equal(t, 0, f.users.count())
}

func TestOTP_Verify_Expired(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	code := f.challenge(t, "a@x.com").Code

	f.clock = f.clock.Add(model.OTPLifetime + time.Second)

	_, err = f.otp.Verify(ctx, "a@x.com", code, "Ann", "pw")
	require.ErrorIs(t, err, errOTPExpired)

	_, err = f.challenges.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 0, f.users.count())
}

func TestOTP_Verify_Exhausted(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	require.NoError(t, f.challenges.Set(ctx, "a@x.com", model.Challenge{
		Code:      "123456",
		ExpiresAt: f.clock.Add(time.Minute),
		Attempts:  model.OTPMaxAttempts,
	}))

	_, err := f.otp.Verify(ctx, "a@x.com", "123456", "Ann", "pw")
	require.ErrorIs(t, err, errOTPExhausted)

	_, err = f.challenges.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestOTP_Verify_RegisteredMeanwhile(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	code := f.challenge(t, "a@x.com").Code

	f.users.put(model.User{Email: "a@x.com"})

	_, err = f.otp.Verify(ctx, "a@x.com", code, "Ann", "pw")
	require.ErrorIs(t, err, errAlreadyRegistered)
	assert.Equal(t, 1, f.users.count())
}

func TestOTP_Verify_Validation(t *testing.T) {
	f := newOTPFixture(t, false)

	_, err := f.otp.Verify(context.Background(), "a@x.com", "", "Ann", "pw")
	require.ErrorIs(t, err, errOTPFieldsRequired)

	_, err = f.otp.Verify(context.Background(), "a@x.com", "123456", "Ann", "")
	require.ErrorIs(t, err, errOTPPasswordRequired)
}

func TestOTP_Resend(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t, false)

	_, err := f.otp.Resend(ctx, "a@x.com")
	require.ErrorIs(t, err, errNoChallengeResend)

	_, err = f.otp.Request(ctx, "a@x.com", "Ann", "")
	require.NoError(t, err)
	first := f.challenge(t, "a@x.com")
	_, err = f.otp.Verify(ctx, "a@x.com", wrongCode(first.Code), "Ann", "pw")
	require.Error(t, err)

	f.clock = f.clock.Add(2 * time.Minute)
	res, err := f.otp.Resend(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "New OTP sent successfully to your email", res.Message)

	renewed := f.challenge(t, "a@x.com")
	assert.Equal(t, 0, renewed.Attempts)
	assert.Equal(t, "Ann", renewed.Name)
	assert.Equal(t, model.PurposeRegistration, renewed.Purpose)
	assert.Equal(t, f.clock.Add(model.OTPLifetime), renewed.ExpiresAt)
	assert.Equal(t, f.mailer.lastCode("a@x.com"), renewed.Code)
}

func TestOTP_ErrorsAreClientErrors(t *testing.T) {
	for _, err := range []*apperror.APIError{errNoChallenge, errOTPExpired, errOTPExhausted, errInvalidCode(1), errAlreadyRegistered} {
		assert.Equal(t, 400, err.Status, err.Message)
	}
}
