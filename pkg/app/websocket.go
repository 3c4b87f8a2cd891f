package app

import (
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/miknow-notebook-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// MessageAuthorization 客户端首条消息类型
	MessageAuthorization = "Authorization"
)

// Authenticator 将客户端提交的令牌解析为工作区 ID
type Authenticator func(token string) (int64, error)

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// ResResult websocket 响应体
type ResResult struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Msg     string `json:"msg"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

// WebsocketClient 单个连接及其工作区
type WebsocketClient struct {
	conn   *gws.Conn
	uid    int64
	authed bool
	done   chan struct{}
	once   sync.Once
}

func (c *WebsocketClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// WebsocketServer 按工作区分组连接，并向对应工作区推送消息
type WebsocketServer struct {
	config *WebsocketServerConfig
	auth   Authenticator
	logger *zap.Logger
	up     *gws.Upgrader

	mu         sync.RWMutex
	clients    map[*gws.Conn]*WebsocketClient
	workspaces map[int64]map[*gws.Conn]*WebsocketClient
}

func NewWebsocketServer(c WebsocketServerConfig, auth Authenticator, logger *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WebsocketServer{
		config:     &c,
		auth:       auth,
		logger:     logger,
		clients:    make(map[*gws.Conn]*WebsocketClient),
		workspaces: make(map[int64]map[*gws.Conn]*WebsocketClient),
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Run 返回升级连接的 gin 处理函数
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("WebsocketServer Upgrade err", zap.Error(err))
			return
		}
		w.mu.Lock()
		w.clients[socket] = &WebsocketClient{conn: socket, done: make(chan struct{})}
		w.mu.Unlock()
		go socket.ReadLoop()
	}
}

// Publish 向工作区内所有已授权连接推送 "Type|json" 消息，返回接收连接数
func (w *WebsocketServer) Publish(uid int64, msgType string, v any) int {
	payload, err := encode(msgType, v)
	if err != nil {
		w.logger.Error("WebsocketServer Publish encode err", zap.Error(err))
		return 0
	}

	w.mu.RLock()
	conns := make([]*gws.Conn, 0, len(w.workspaces[uid]))
	for conn := range w.workspaces[uid] {
		conns = append(conns, conn)
	}
	w.mu.RUnlock()

	if len(conns) == 0 {
		return 0
	}

	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()
	for _, conn := range conns {
		_ = b.Broadcast(conn)
	}
	return len(conns)
}

// Count 当前已授权连接数
func (w *WebsocketServer) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for _, conns := range w.workspaces {
		n += len(conns)
	}
	return n
}

func encode(msgType string, v any) ([]byte, error) {
	body, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(msgType+"|"), body...), nil
}

func (w *WebsocketServer) reply(conn *gws.Conn, msgType string, c *code.Code) {
	res := ResResult{Code: c.Code(), Status: c.Status(), Msg: c.Msg(), Data: c.Data()}
	if c.HaveDetails() {
		res.Details = strings.Join(c.Details(), ",")
	}
	payload, err := encode(msgType, res)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(gws.OpcodeText, payload)
}

func (w *WebsocketServer) authorize(client *WebsocketClient, token string) {
	uid, err := w.auth(token)
	if err != nil {
		w.logger.Warn("WebsocketServer Authorization failed", zap.Error(err))
		w.reply(client.conn, MessageAuthorization, code.ErrorInvalidUserAuthToken)
		client.conn.WriteClose(1000, []byte("AuthorizationFailed"))
		return
	}

	w.mu.Lock()
	client.uid = uid
	client.authed = true
	if w.workspaces[uid] == nil {
		w.workspaces[uid] = make(map[*gws.Conn]*WebsocketClient)
	}
	w.workspaces[uid][client.conn] = client
	count := len(w.workspaces[uid])
	w.mu.Unlock()

	w.reply(client.conn, MessageAuthorization, code.Success)
	w.logger.Info("WebsocketServer workspace joined", zap.Int64("uid", uid), zap.Int("count", count))
	go w.pingLoop(client)
}

func (w *WebsocketServer) pingLoop(c *WebsocketClient) {
	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				w.logger.Debug("WebsocketServer ping err", zap.Error(err))
				return
			}
		}
	}
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	w.mu.Lock()
	c := w.clients[conn]
	delete(w.clients, conn)
	if c != nil && c.authed {
		delete(w.workspaces[c.uid], conn)
		if len(w.workspaces[c.uid]) == 0 {
			delete(w.workspaces, c.uid)
		}
	}
	w.mu.Unlock()

	if c != nil {
		c.stop()
	}
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}

	raw := message.Data.String()
	if raw == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	w.mu.RLock()
	client := w.clients[conn]
	w.mu.RUnlock()
	if client == nil {
		return
	}

	msgType, data, ok := strings.Cut(raw, "|")
	if !ok {
		w.logger.Warn("WebsocketServer illegal message", zap.String("raw", raw))
		return
	}

	switch {
	case msgType == MessageAuthorization:
		w.authorize(client, data)
	case !client.authed:
		w.reply(conn, msgType, code.ErrorNotUserAuthToken)
	default:
		// the feed is server-push only
		w.reply(conn, msgType, code.ErrorNotFoundAPI)
	}
}
