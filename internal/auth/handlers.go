package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"booknest/internal/database/users"
)

// stateCookieName carries the OAuth state nonce between the redirect
// and the callback.
const stateCookieName = "booknest_oauth_state"

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service *Service
	tokens  TokenService
	google  *GoogleProvider
}

// NewAuthController creates a new authentication controller. The
// google provider may be nil, which disables the federated routes.
func NewAuthController(service *Service, tokens TokenService, google *GoogleProvider) *AuthController {
	return &AuthController{
		service: service,
		tokens:  tokens,
		google:  google,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth/register", ac.Register)
	router.POST("/auth/login", ac.Login)
	router.POST("/auth/logout", ac.Logout)
	router.GET("/auth/me", RequireSession(ac.tokens), ac.Me)

	if ac.google != nil {
		router.GET("/auth/google", ac.GoogleRedirect)
		router.GET("/auth/google/callback", ac.GoogleCallback)
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account from an email/password signup.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields),
			errors.Is(err, ErrEmailInvalid),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordTooLong),
			errors.Is(err, users.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Auth: registration failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues the session token, both as an
// HttpOnly cookie and in the response body for API clients.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Auth: login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if user == nil {
		// don't reveal which part failed
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, exp, err := ac.tokens.Sign(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		log.Printf("Auth: token signing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.tokens.SetSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user":       user.Summary(),
		"token":      token,
		"expires_at": exp.UTC(),
	})
}

// Logout clears the session cookie. The token itself stays valid until
// expiry since sessions are stateless.
func (ac *AuthController) Logout(c *gin.Context) {
	ac.tokens.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated user's claims.
func (ac *AuthController) Me(c *gin.Context) {
	claims := GetClaims(c)
	c.JSON(http.StatusOK, gin.H{
		"id":    claims.UserID,
		"email": claims.Email,
		"name":  claims.Name,
	})
}

// GoogleRedirect starts the federated sign-in flow.
func (ac *AuthController) GoogleRedirect(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, 600, "/", "", ac.tokens.SecureCookies, true)
	c.Redirect(http.StatusFound, ac.google.BuildAuthURL(state))
}

// GoogleCallback completes the federated sign-in flow: it verifies the
// state nonce, exchanges the code, resolves the account by email, and
// issues the session cookie.
func (ac *AuthController) GoogleCallback(c *gin.Context) {
	stored, err := c.Cookie(stateCookieName)
	if err != nil || stored == "" || stored != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", ac.tokens.SecureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	ctx := c.Request.Context()
	accessToken, err := ac.google.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("Auth: google code exchange failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sign-in with Google failed"})
		return
	}

	profile, err := ac.google.FetchProfile(ctx, accessToken)
	if err != nil {
		log.Printf("Auth: google profile fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sign-in with Google failed"})
		return
	}

	user, err := ac.service.LinkOAuthIdentity(ctx, profile.Email, profile.Name)
	if err != nil {
		log.Printf("Auth: linking google identity failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	token, _, err := ac.tokens.Sign(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		log.Printf("Auth: token signing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.tokens.SetSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/")
}
