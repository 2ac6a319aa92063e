// handlers/ws.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"costmgt/models"
	"costmgt/utils"
)

// Org-scoped broadcast hub. Clients subscribe over /ws with a JWT and
// receive audit rows and notifications for their organization as they are
// written.

type BroadcastMessage struct {
	OrgID   string
	Message []byte
}

type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.Mutex
}

type Client struct {
	orgID    string
	userID   string
	userRole string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
}

var hub = &Hub{
	clients:    make(map[string]map[*Client]bool),
	broadcast:  make(chan BroadcastMessage),
	register:   make(chan *Client),
	unregister: make(chan *Client),
}

// StartHub launches the hub loop. Call once during boot.
func StartHub() {
	go hub.Run()
}

func (h *Hub) Run() {
	log.Println("WebSocket hub started")
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			if _, ok := h.clients[client.orgID]; !ok {
				h.clients[client.orgID] = make(map[*Client]bool)
			}
			h.clients[client.orgID][client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if clients, ok := h.clients[client.orgID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.orgID)
					}
				}
			}
			h.mutex.Unlock()

		case bm := <-h.broadcast:
			h.mutex.Lock()
			if clients, ok := h.clients[bm.OrgID]; ok {
				for client := range clients {
					select {
					case client.send <- bm.Message:
					default:
						close(client.send)
						delete(clients, client)
					}
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastAudit pushes a freshly written audit row to all clients in the
// same organization.
func BroadcastAudit(entry *models.AuditLog) {
	payload := map[string]interface{}{
		"type":  "AUDIT_LOG",
		"audit": entry,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal audit for WS: %v", err)
		return
	}
	hub.broadcast <- BroadcastMessage{OrgID: entry.OrganizationID.Hex(), Message: data}
}

// BroadcastNotification pushes an in-app notification. Clients filter on the
// embedded userId.
func BroadcastNotification(n *models.Notification) {
	payload := map[string]interface{}{
		"type":         "NOTIFICATION",
		"notification": n,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal notification for WS: %v", err)
		return
	}
	hub.broadcast <- BroadcastMessage{OrgID: n.OrganizationID.Hex(), Message: data}
}

// HandleWebSocket upgrades the connection after validating the JWT passed as
// a query parameter or bearer header.
func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}
	}
	if tokenString == "" {
		http.Error(w, "Authentication token required", http.StatusUnauthorized)
		return
	}

	claims, err := utils.ValidateJWT(tokenString)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}
	if claims.OrganizationID == "" || claims.UserID == "" {
		http.Error(w, "Invalid token claims", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		orgID:    claims.OrganizationID,
		userID:   claims.UserID,
		userRole: claims.Role,
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      hub,
	}

	client.hub.register <- client

	// Write pump
	go func() {
		ticker := time.NewTicker(45 * time.Second)
		defer func() {
			ticker.Stop()
			client.hub.unregister <- client
			conn.Close()
		}()
		for {
			select {
			case message, ok := <-client.send:
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Read pump
	go func() {
		defer func() {
			client.hub.unregister <- client
			conn.Close()
		}()

		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
