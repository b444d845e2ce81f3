package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

// BackendClient wraps the backend REST endpoints the monitor relies on.
type BackendClient struct {
	net    interfaces.INetworkManager
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewBackendClient(nm interfaces.INetworkManager, log *logger.Logger) *BackendClient {
	return &BackendClient{net: nm, Logger: log}
}

// -----------------------------------------------------------------------------

// Login exchanges credentials for a token and installs it on the transport.
func (b *BackendClient) Login(ctx context.Context, email, password string) (*models.MAuthSession, error) {
	body, err := b.net.Post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, helpers.NewAuthError("login failed", err)
	}

	var session models.MAuthSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if session.Token == "" {
		return nil, helpers.NewAuthError("login returned no token", helpers.ErrNotAuthenticated)
	}

	b.net.SetToken(session.Token)
	b.Logger.Info("Logged in as %s", session.User.Email)
	return &session, nil
}

// SetToken installs a token obtained elsewhere.
func (b *BackendClient) SetToken(token string) {
	b.net.SetToken(token)
}

// Validate checks the current token against the backend.
func (b *BackendClient) Validate(ctx context.Context) (*models.MUser, error) {
	var out struct {
		User *models.MUser `json:"user"`
	}
	if err := b.getData(ctx, "/api/auth/validate", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, helpers.NewAuthError("token rejected", helpers.ErrNotAuthenticated)
	}
	return out.User, nil
}

// -----------------------------------------------------------------------------

func (b *BackendClient) Bookmakers(ctx context.Context) ([]models.MBookmaker, error) {
	var out []models.MBookmaker
	err := b.getData(ctx, "/api/bookmakers", nil, &out)
	return out, err
}

func (b *BackendClient) Bookmaker(ctx context.Context, id int) (*models.MBookmaker, error) {
	var out models.MBookmaker
	if err := b.getData(ctx, "/api/bookmakers/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *BackendClient) BookmakersByGame(ctx context.Context, gameID int) ([]models.MBookmaker, error) {
	var out []models.MBookmaker
	err := b.getData(ctx, "/api/bookmakers/game/"+strconv.Itoa(gameID), nil, &out)
	return out, err
}

func (b *BackendClient) Games(ctx context.Context) ([]models.MGame, error) {
	var out []models.MGame
	err := b.getData(ctx, "/api/games", nil, &out)
	return out, err
}

func (b *BackendClient) Game(ctx context.Context, id int) (*models.MGame, error) {
	var out models.MGame
	if err := b.getData(ctx, "/api/games/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -----------------------------------------------------------------------------

// StartServices asks the backend to bring up its upstream feeds for game.
func (b *BackendClient) StartServices(ctx context.Context, game string) error {
	body, err := b.net.Post(ctx, "/api/"+game+"/start", nil)
	if err != nil {
		return err
	}
	return envelopeError(body)
}

// ConnectionsStatus lists the backend's upstream feed legs for game.
func (b *BackendClient) ConnectionsStatus(ctx context.Context, game string) ([]models.MConnectionInfo, error) {
	var out []models.MConnectionInfo
	err := b.getData(ctx, "/api/"+game+"/connections/status", nil, &out)
	return out, err
}

// -----------------------------------------------------------------------------

// getData decodes either the {success,data} envelope or a bare body.
func (b *BackendClient) getData(ctx context.Context, path string, params map[string]string, out interface{}) error {
	body, err := b.net.Get(ctx, path, params)
	if err != nil {
		return err
	}
	return decodeData(body, out)
}

func decodeData(body []byte, out interface{}) error {
	var env map[string]json.RawMessage
	if json.Unmarshal(body, &env) == nil {
		if _, ok := env["success"]; ok {
			if err := envelopeError(body); err != nil {
				return err
			}
			data, ok := env["data"]
			if !ok {
				return nil
			}
			return json.Unmarshal(data, out)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func envelopeError(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var env struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil || *env.Success {
		return nil
	}
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = "request rejected"
	}
	return errors.New(msg)
}
