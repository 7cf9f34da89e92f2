package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"house-price-api/auth"
	"house-price-api/logging"
	"house-price-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type TokenResolver interface {
	Resolve(ctx context.Context, token string) (auth.Authenticated, error)
}

// PredictionFeed streams the caller's new predictions as they are stored.
// Browsers cannot set headers on websocket requests, so the token travels in
// the query string.
func PredictionFeed(cache *services.CacheService, resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "missing token query parameter"})
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), tokenStr)
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid or expired token"})
			return
		case err != nil:
			respondInternal(c, "failed to authenticate websocket", err)
			return
		}

		if !cache.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "live updates are not available"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logging.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, services.PredictionChannel(caller.UserID))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				err := conn.WriteJSON(gin.H{
					"type": "prediction_created",
					"data": json.RawMessage(msg.Payload),
				})
				if err != nil {
					logging.Warn().Err(err).Uint("user_id", caller.UserID).Msg("websocket write failed")
					return
				}
			}
		}
	}
}
