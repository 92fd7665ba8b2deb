package handlers

import (
	"context"
	"errors"
	"net/http"

	"smart-notes/auth"
	"smart-notes/db"
	"smart-notes/models"
	"smart-notes/webutil"
)

const (
	msgIncorrectInputs  = "Incorrect Inputs"
	msgUserExists       = "User already exists"
	msgInvalidEmail     = "Invalid email"
	msgInvalidPassword  = "Invalid password"
	msgSigninSuccessful = "Signin successful"
	msgSomethingWrong   = "Something went wrong"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthHandler struct {
	Users  UserStore
	Tokens TokenIssuer
}

func NewAuthHandler(users UserStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens}
}

type signupRequest struct {
	Email    *string `json:"email" validate:"required,email"`
	Password *string `json:"password" validate:"required"`
}

type signinRequest struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type signupResponse struct {
	UserID string `json:"userId"`
}

type signinResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Signup answers 411 both for malformed input and for any insert failure,
// duplicate email included.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) error {
	var req signupRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return webutil.ErrValidation(http.StatusLengthRequired, msgIncorrectInputs, err)
	}

	hash, err := auth.HashPassword(*req.Password)
	if err != nil {
		return webutil.ErrValidation(http.StatusLengthRequired, msgIncorrectInputs, err)
	}

	user, err := h.Users.CreateUser(r.Context(), *req.Email, hash)
	if err != nil {
		return webutil.ErrValidation(http.StatusLengthRequired, msgUserExists, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, signupResponse{UserID: user.ID})
	return nil
}

// Signin distinguishes an unknown email from a wrong password.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) error {
	var req signinRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return webutil.ErrValidation(http.StatusLengthRequired, msgIncorrectInputs, err)
	}

	user, err := h.Users.GetUserByEmail(r.Context(), *req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return webutil.ErrUnauthorized(msgInvalidEmail)
		}
		return webutil.ErrInternalServerWrap(msgSomethingWrong, err)
	}

	if !auth.CheckPassword(*req.Password, user.PasswordHash) {
		return webutil.ErrUnauthorized(msgInvalidPassword)
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return webutil.ErrInternalServerWrap(msgSomethingWrong, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, signinResponse{Message: msgSigninSuccessful, Token: token})
	return nil
}
