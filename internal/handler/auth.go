package handler

import (
    "context"   // context with cancellation for service calls
    "errors"    // sentinel error matching
    "net/http"  // HTTP status codes
    "net/mail"  // RFC 5322 address validation
    "strings"   // input trimming
    "time"      // request timeouts

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/astrivya/backend/internal/repository" // user row type
    "github.com/astrivya/backend/internal/service"    // auth flow and domain errors
    "github.com/astrivya/backend/internal/utils"      // issued access token
)

// AuthFlow is the slice of the auth service the handlers call.
type AuthFlow interface {
    Register(ctx context.Context, name, email string) error
    RequestLoginOTP(ctx context.Context, email string) error
    VerifyOTP(ctx context.Context, email, code string) (*repository.User, utils.AccessToken, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth AuthFlow
}

func NewAuthHandler(auth AuthFlow) *AuthHandler {
    return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type sendOTPReq struct {
    Name  string `json:"name"`
    Email string `json:"email"`
}
type loginOTPReq struct {
    Email string `json:"email"`
}
type verifyOTPReq struct {
    Email string `json:"email"`
    OTP   string `json:"otp"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID            string `json:"id"`
    Name          string `json:"name"`
    Email         string `json:"email"`
    EmailVerified bool   `json:"email_verified"`
}

// errorBody is the error contract consumers branch on: code is the stable
// machine-readable value, error the human message.
type errorBody struct {
    Error string `json:"error"`
    Code  string `json:"code"`
}

// SendOTP: register a new email (or re-issue for a pending one) and mail the code.
func (h *AuthHandler) SendOTP(c echo.Context) error {
    var req sendOTPReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.TrimSpace(req.Email)
    if req.Name == "" {
        return badRequest(c, "name is required")
    }
    if !validEmail(req.Email) {
        return badRequest(c, "a valid email is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    if err := h.Auth.Register(ctx, req.Name, req.Email); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "verification code sent",
        "email":   req.Email,
    })
}

// LoginOTP: issue a fresh code for an existing email.
func (h *AuthHandler) LoginOTP(c echo.Context) error {
    var req loginOTPReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    req.Email = strings.TrimSpace(req.Email)
    if !validEmail(req.Email) {
        return badRequest(c, "a valid email is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    if err := h.Auth.RequestLoginOTP(ctx, req.Email); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "verification code sent",
        "email":   req.Email,
    })
}

// VerifyOTP: consume the code, mark the email verified and return the user
// with a signed access token.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
    var req verifyOTPReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    req.Email = strings.TrimSpace(req.Email)
    req.OTP = strings.TrimSpace(req.OTP)
    if !validEmail(req.Email) {
        return badRequest(c, "a valid email is required")
    }
    if req.OTP == "" {
        return badRequest(c, "otp is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, tok, err := h.Auth.VerifyOTP(ctx, req.Email, req.OTP)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "email verified",
        "user": userPart{
            ID:            u.ID,
            Name:          u.Name,
            Email:         u.Email,
            EmailVerified: u.EmailVerified,
        },
        "token": tokenPart{Token: tok.Token, Expires: tok.Exp},
    })
}

// Me: simple protected endpoint returning claims injected by the JWT middleware.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": c.Get("user_id"),
        "email":   c.Get("email"),
    })
}

// writeServiceError maps domain errors to status + stable code; everything
// else bubbles up to the global error handler as a 500.
func writeServiceError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrEmailAlreadyRegistered):
        return c.JSON(http.StatusConflict, errorBody{
            Error: "This email is already registered. Please sign in instead.",
            Code:  "EMAIL_ALREADY_REGISTERED",
        })
    case errors.Is(err, service.ErrUserNotFound):
        return c.JSON(http.StatusNotFound, errorBody{
            Error: "No account found for this email.",
            Code:  "USER_NOT_FOUND",
        })
    case errors.Is(err, service.ErrInvalidOrExpiredOTP):
        return c.JSON(http.StatusUnauthorized, errorBody{
            Error: "The verification code is invalid or has expired.",
            Code:  "INVALID_OR_EXPIRED_OTP",
        })
    case errors.Is(err, service.ErrOTPResendTooSoon):
        return c.JSON(http.StatusTooManyRequests, errorBody{
            Error: "A code was sent recently. Please wait before requesting another.",
            Code:  "OTP_RESEND_TOO_SOON",
        })
    case errors.Is(err, service.ErrMailSend):
        return c.JSON(http.StatusBadGateway, errorBody{
            Error: "Could not deliver the verification email. Please try again.",
            Code:  "EMAIL_SEND_FAILED",
        })
    }
    return err
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: "VALIDATION_ERROR"})
}

func validEmail(s string) bool {
    if s == "" {
        return false
    }
    addr, err := mail.ParseAddress(s)
    return err == nil && addr.Address == s
}
