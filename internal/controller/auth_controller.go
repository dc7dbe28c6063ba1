package controller

import (
	"net/http"
	"pulse_backend/internal/config"
	"pulse_backend/internal/service"
	"pulse_backend/internal/util"
	"pulse_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	AuthService *service.AuthService
	Config      *config.Config
}

func NewAuthController(authService *service.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{AuthService: authService, Config: cfg}
}

// redirectCookieMaxAge 回跳地址只保留到一次回调
const redirectCookieMaxAge = 600

// OAuthSignIn godoc
// @Summary 发起 OAuth 登录
// @Description 记录回跳地址后重定向到托管身份提供方
// @Tags 认证
// @Param   provider path string true "OAuth provider (google)"
// @Param   redirectTo query string false "登录成功后的回跳路径"
// @Success 302
// @Router /api/auth/oauth/{provider} [get]
func (c *AuthController) OAuthSignIn(ctx *gin.Context) {
	provider := ctx.Param("provider")

	if redirectTo := ctx.Query("redirectTo"); redirectTo != "" {
		ctx.SetCookie(util.RedirectCookie, redirectTo, redirectCookieMaxAge, "/", c.Config.Auth.CookieDomain, false, true)
	}

	ctx.Redirect(http.StatusFound, c.AuthService.OAuthRedirectURL(provider))
}

// EmailSignInRequest swagger:model EmailSignInRequest
type EmailSignInRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// EmailSignIn godoc
// @Summary 邮箱魔法链接登录
// @Description 请求身份提供方向邮箱发送一次性登录链接
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body EmailSignInRequest true "登录邮箱"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 502 {object} util.Response "身份提供方不可用"
// @Router /api/auth/email [post]
func (c *AuthController) EmailSignIn(ctx *gin.Context) {
	var req EmailSignInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.SendMagicLink(ctx.Request.Context(), req.Email); err != nil {
		logger.Log.Error("magic link request failed", zap.Error(err))
		util.Error(ctx, http.StatusBadGateway, "Could not authenticate user. Please try again!")
		return
	}

	util.Success(ctx, gin.H{"message": "Check your email for the Magic Link !"})
}

// Callback godoc
// @Summary 登录回调
// @Description 用授权码换取会话，写入会话 Cookie 后回跳；回跳
// @Description Cookie 一次性使用，读完即清
// @Tags 认证
// @Param   code query string false "Authorization code"
// @Success 302
// @Router /api/auth/callback [get]
func (c *AuthController) Callback(ctx *gin.Context) {
	code := ctx.Query("code")

	if code != "" {
		session, err := c.AuthService.ExchangeCode(ctx.Request.Context(), code)
		if err != nil {
			logger.Log.Error("code exchange failed", zap.Error(err))
		} else {
			token, err := c.AuthService.IssueSession(session.User.ID, session.User.Email)
			if err == nil {
				maxAge := int(c.Config.JWT.ExpireTime.Seconds())
				ctx.SetCookie(util.SessionCookie, token, maxAge, "/", c.Config.Auth.CookieDomain, false, true)
			}
		}
	}

	redirectTo, _ := ctx.Cookie(util.RedirectCookie)
	// 读完即清
	ctx.SetCookie(util.RedirectCookie, "", -1, "/", c.Config.Auth.CookieDomain, false, true)

	if redirectTo == "" {
		redirectTo = c.Config.Auth.DefaultPath
	}
	ctx.Redirect(http.StatusFound, redirectTo)
}

// SignOut godoc
// @Summary 退出登录
// @Tags 认证
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/auth/signout [post]
func (c *AuthController) SignOut(ctx *gin.Context) {
	ctx.SetCookie(util.SessionCookie, "", -1, "/", c.Config.Auth.CookieDomain, false, true)
	util.Success(ctx, gin.H{"message": "You have been logged out!"})
}

// Profile godoc
// @Summary 当前登录用户
// @Tags 认证
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /api/profile [get]
func (c *AuthController) Profile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{"userId": claims.UserID, "email": claims.Email})
}
