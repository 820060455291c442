package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/qna-forum-backend/internal/app/service"
	"github.com/ikkim/qna-forum-backend/internal/middleware"
	ws "github.com/ikkim/qna-forum-backend/internal/websocket"
)

type WebsocketController struct {
	hub         *ws.Hub
	postService service.PostService
	upgrader    gorillaws.Upgrader
}

// NewWebsocketController accepts upgrades from allowedOrigins. An empty list
// or "*" accepts any origin.
func NewWebsocketController(hub *ws.Hub, postService service.PostService, allowedOrigins []string) *WebsocketController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebsocketController{
		hub:         hub,
		postService: postService,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || origins["*"] || origins[origin]
			},
		},
	}
}

// SubscribePost handles GET /ws/posts/:id and streams reply events of the post.
func (ctrl *WebsocketController) SubscribePost(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.postService.GetPost(postID); err != nil {
		respondServiceError(c, err, "subscribe post")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("WebSocket upgrade failed", map[string]interface{}{
			"post_id": postID,
			"error":   err.Error(),
		})
		return
	}

	userID, _ := middleware.GetUserID(c)
	ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, postID, userID).Serve()
}
