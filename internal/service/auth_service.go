package service

import (
	"context"
	"fmt"
	"net/url"
	"pulse_backend/internal/config"
	"pulse_backend/internal/util"
	"time"

	"github.com/go-resty/resty/v2"
)

// AuthService 托管身份提供方的客户端。本服务不做任何自有认证：
// OAuth 跳转和邮箱魔法链接都由提供方完成，回调时用授权码换取
// 用户身份，再签发本地会话 Cookie。
type AuthService struct {
	cfg    config.AuthConfig
	jwtCfg config.JWTConfig
	server config.ServerConfig
	client *resty.Client
}

func NewAuthService(cfg config.AuthConfig, jwtCfg config.JWTConfig, server config.ServerConfig) *AuthService {
	client := resty.New().
		SetBaseURL(cfg.ProviderURL).
		SetHeader("apikey", cfg.APIKey).
		SetTimeout(10 * time.Second)

	return &AuthService{cfg: cfg, jwtCfg: jwtCfg, server: server, client: client}
}

func (s *AuthService) callbackURL() string {
	return s.server.PublicURL + "/api/auth/callback"
}

// OAuthRedirectURL 拼出跳往提供方的授权地址
func (s *AuthService) OAuthRedirectURL(provider string) string {
	return fmt.Sprintf("%s/authorize?provider=%s&redirect_to=%s",
		s.cfg.ProviderURL, url.QueryEscape(provider), url.QueryEscape(s.callbackURL()))
}

type magicLinkRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
	RedirectTo string `json:"redirect_to"`
}

// SendMagicLink 请求提供方给邮箱发一条登录链接
func (s *AuthService) SendMagicLink(ctx context.Context, email string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(magicLinkRequest{Email: email, CreateUser: true, RedirectTo: s.callbackURL()}).
		Post("/otp")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("identity provider error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type ProviderSession struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// ExchangeCode 用回调里的授权码换取提供方会话
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*ProviderSession, error) {
	var session ProviderSession
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "authorization_code").
		SetBody(map[string]string{"auth_code": code}).
		SetResult(&session).
		Post("/token")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("code exchange failed (status %d): %s", resp.StatusCode(), resp.String())
	}
	return &session, nil
}

// IssueSession 为换码成功的用户签发本地 JWT 会话
func (s *AuthService) IssueSession(userID, email string) (string, error) {
	return util.GenerateJWT(userID, email, s.jwtCfg.Secret, s.jwtCfg.ExpireTime)
}
