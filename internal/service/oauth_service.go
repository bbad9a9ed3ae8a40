// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ryounan4/Cramify/internal/config"
	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/pkg/identity"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	identity   identity.Provider
	sessions   ISessionService
	googleConf *oauth2.Config
}

func NewOAuthService(cfg config.OAuthConfig, identityProvider identity.Provider, sessions ISessionService) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		identity:   identityProvider,
		sessions:   sessions,
		googleConf: conf,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		log.Printf("[OAuth Service] ERROR - Unsupported provider: %s", provider)
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	url := s.googleConf.AuthCodeURL(state)
	log.Printf("[OAuth Service] Generated login URL with state: %s", state)

	return url, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	if provider != "google" {
		log.Printf("[OAuth Service] ERROR - Unsupported provider: %s", provider)
		return nil, errors.New("unsupported provider")
	}

	log.Printf("[OAuth Service] Starting callback handling...")

	// Exchange code for token
	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		log.Printf("[OAuth Service] ERROR - Code exchange failed: %v", err)
		return nil, fmt.Errorf("code exchange failed: %v", err)
	}
	log.Printf("[OAuth Service] ✅ Successfully exchanged code for access token")

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		log.Printf("[OAuth Service] ERROR - No id_token in exchange response")
		return nil, errors.New("no id_token in exchange response")
	}

	// Hand the Google ID token to the identity provider. It verifies the
	// token and returns (or creates) the federated account.
	res, err := s.identity.SignInWithIDP(ctx, "google.com", rawIDToken, s.googleConf.RedirectURL)
	if err != nil {
		log.Printf("[OAuth Service] ERROR - Federated sign-in failed: %v", err)
		return nil, errors.New(identity.Friendly(err))
	}

	log.Printf("[OAuth Service] ✅ Federated sign-in accepted:")
	log.Printf("  - UID: %s", res.Uid)
	log.Printf("  - Email: %s", res.Email)
	log.Printf("  - Name: %s", res.DisplayName)

	session := s.sessions.Create(ctx, res, entity.SessionProviderGoogle)

	signed, err := SignSessionToken(session)
	if err != nil {
		log.Printf("[OAuth Service] ERROR - Failed to sign session token: %v", err)
		return nil, err
	}
	log.Printf("[OAuth Service] ✅ Session token generated successfully")

	return &dto.LoginResponse{
		AccessToken: signed,
		User: dto.UserDTO{
			Uid:         session.Uid,
			Email:       session.Email,
			DisplayName: session.DisplayName,
			Provider:    string(session.Provider),
		},
	}, nil
}
