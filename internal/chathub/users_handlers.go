package chathub

import (
	"context"
	"encoding/json"
	"log"

	"github.com/olegdemchenko/chat-service/internal/config"
	"github.com/olegdemchenko/chat-service/internal/models"

	"github.com/samber/lo"
)

type findUsersPayload struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

type isUserOnlinePayload struct {
	UserID string `json:"userId"`
}

func (r *Router) handleFindUsers(ctx context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p findUsersPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	match, total, err := r.Storage.FindUsers(p.Query, client.GetUserID(), p.Page, config.UsersPerPage)
	if err != nil {
		return nil, err
	}

	// One set fetch instead of a membership check per row.
	onlineUsers, err := r.Registry.OnlineUsers(ctx)
	if err != nil {
		log.Printf("WARNING: Failed to load online user set: %v", err)
	}

	users := lo.Map(match, func(u models.User, _ int) models.UserMatch {
		return models.UserMatch{
			UserID:   u.UserID,
			Name:     u.Name,
			IsOnline: lo.Contains(onlineUsers, u.UserID),
		}
	})
	return models.FindUsersResult{Users: users, Total: total}, nil
}

func (r *Router) handleIsUserOnline(ctx context.Context, _ Client, payload json.RawMessage) (interface{}, error) {
	var p isUserOnlinePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return r.Registry.IsOnline(ctx, p.UserID)
}
