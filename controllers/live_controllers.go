package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/utils"
)

// LiveController streams live bill updates over websocket: one Watch per
// connection, every composed update pushed as a JSON frame.
type LiveController struct {
	Engine   *engine.Engine
	upgrader websocket.Upgrader
}

func NewLiveController(eng *engine.Engine) *LiveController {
	return &LiveController{
		Engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type liveMessage struct {
	Event string        `json:"event"`
	Data  engine.Update `json:"data"`
}

// WatchTable -> GET /ws/restaurants/:restaurant_id/tables/:table_id
func (lc *LiveController) WatchTable(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	conn, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	// The watch owns its own lifetime; the request context ends with the
	// HTTP handler, so the stream runs on a background context until the
	// client goes away.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unsubscribe, err := lc.Engine.Watch(ctx, restaurantID, uint(tableID), func(update engine.Update) {
		// Called from the single watcher goroutine, so writes are already
		// serialized.
		if err := conn.WriteJSON(liveMessage{Event: "bill_update", Data: update}); err != nil {
			cancel()
		}
	})
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
		conn.Close()
		return
	}
	defer unsubscribe()
	defer conn.Close()

	// Drain the read side to notice the client closing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
