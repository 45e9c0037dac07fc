package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
)

// WSMessage represents a command from the client
type WSMessage struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// WSEvent represents a message to the client
type WSEvent struct {
	Type string `json:"type"` // channel | private | error
	Text string `json:"text"`
}

// Client represents a websocket connection with account info
type Client struct {
	conn    *websocket.Conn
	account string
	writeMu sync.Mutex // Serialize writes to WebSocket (required by gorilla/websocket)
}

// Hub fans game output out to every connected client and feeds inbound
// commands into the game. It implements Transport; the game core never
// touches a websocket directly.
type Hub struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}
	wg         sync.WaitGroup
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn, 64),
		done:       make(chan struct{}),
	}
}

// stop signals the hub goroutine to exit and waits for it to finish
func (h *Hub) stop() {
	close(h.done)
	h.wg.Wait()
}

// SendChannel broadcasts a public game message to every client.
func (h *Hub) SendChannel(text string) {
	payload, _ := json.Marshal(WSEvent{Type: "channel", Text: text})
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// SendPrivate delivers a message to every connection the account holds.
func (h *Hub) SendPrivate(account, text string) {
	payload, _ := json.Marshal(WSEvent{Type: "private", Text: text})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.account != account {
			continue
		}
		LogWSMessage("OUT", account, text)
		client.writeMu.Lock()
		err := client.conn.WriteMessage(websocket.TextMessage, payload)
		client.writeMu.Unlock()
		if err != nil {
			log.Printf("WebSocket write error to %s: %v", account, err)
		}
	}
}

// RosterSnapshot lists the distinct connected accounts, sorted.
func (h *Hub) RosterSnapshot() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, client := range h.clients {
		if !seen[client.account] {
			seen[client.account] = true
			out = append(out, client.account)
		}
	}
	sort.Strings(out)
	return out
}

func (h *Hub) run() {
	h.wg.Add(1)
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client connected (%s). Total: %d", client.account, total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				hasOtherConn := false
				for _, c := range h.clients {
					if c.account == client.account {
						hasOtherConn = true
						break
					}
				}
				if !hasOtherConn {
					DebugLog("hub: %s has no more connections", client.account)
				}
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mu.RLock()
			for conn, client := range h.clients {
				client.writeMu.Lock()
				err := conn.WriteMessage(websocket.TextMessage, message)
				client.writeMu.Unlock()
				if err != nil {
					log.Printf("WebSocket write error: %v", err)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// sendToClient writes one event to a single connection.
func (h *Hub) sendToClient(client *Client, ev WSEvent) {
	payload, _ := json.Marshal(ev)
	client.writeMu.Lock()
	err := client.conn.WriteMessage(websocket.TextMessage, payload)
	client.writeMu.Unlock()
	if err != nil {
		log.Printf("WebSocket write error to %s: %v", client.account, err)
	}
}

// serveWS upgrades an authenticated request and pumps its commands into the
// game until the connection closes.
func serveWS(h *Hub, auth *authHandler, game *GameState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := auth.accountFromSession(r)
		if account == "" {
			DebugLog("serveWS: rejected connection, not logged in")
			http.Error(w, "Not logged in", http.StatusUnauthorized)
			return
		}

		var upgrader = websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error for %s: %v", account, err)
			return
		}

		client := &Client{conn: conn, account: account}
		h.register <- client

		go func() {
			defer func() {
				h.unregister <- conn
			}()
			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					break
				}
				handleWSMessage(h, game, client, message)
			}
		}()
	}
}

// handleWSMessage parses one inbound frame and dispatches it. Runs on the
// connection's reader goroutine, so a slow command never stalls the hub.
func handleWSMessage(h *Hub, game *GameState, client *Client, message []byte) {
	LogWSMessage("IN", client.account, string(message))

	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		h.sendToClient(client, WSEvent{Type: "error", Text: "malformed message"})
		return
	}

	reply, err := game.Dispatch(client.account, msg.Command, msg.Args)
	if err != nil {
		h.sendToClient(client, WSEvent{Type: "error", Text: err.Error()})
		return
	}
	if reply != "" {
		h.sendToClient(client, WSEvent{Type: "private", Text: reply})
	}
}
