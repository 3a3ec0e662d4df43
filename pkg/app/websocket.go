package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/prompt-workspace-service/global"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/lxzan/gws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "pws",
	Subsystem: "websocket",
	Name:      "connections_active",
	Help:      "Number of open websocket connections.",
})

type LogType string

const (
	WebSocketServerPingInterval         = 25
	WebSocketServerPingWait             = 40
	LogInfo                     LogType = "info"
	LogError                    LogType = "error"
	LogWarn                     LogType = "warn"
)

func log(t LogType, msg string, fields ...zap.Field) {

	if global.Logger == nil {
		return
	}
	if t == "error" {
		global.Logger.Error(msg, fields...)
	} else if t == "warn" {
		global.Logger.Warn(msg, fields...)
	} else if t == "info" {
		global.Logger.Info(msg, fields...)
	}
}

// WebSocketMessage one frame of the "Action|payload" text protocol
// WebSocketMessage "Action|payload" 文本协议的单帧
type WebSocketMessage struct {
	Type string `json:"type"` // 操作类型，例如 "LockAcquire", "VersionCommit"
	Data []byte `json:"data"` // 操作负载
}

// JoinEntity workspace join payload // 加入工作区的负载
type JoinEntity struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	ActorID     string `json:"actorId" validate:"required"`
	ActorName   string `json:"actorName"`
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

type ResResult struct {
	Code   int         `json:"code"`
	Status bool        `json:"status"`
	Msg    interface{} `json:"msg,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type ResDetailsResult struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Msg     interface{} `json:"msg,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// WebsocketClient 结构体来存储每个 WebSocket 连接及其相关状态
type WebsocketClient struct {
	conn             *gws.Conn
	done             chan struct{}
	ctx              context.Context
	Ctx              *gin.Context
	WorkspaceID      string
	ActorID          string
	ActorName        string
	WorkspaceClients *ConnStorage
	SF               *singleflight.Group // 用于处理并发请求的缓存
}

// Context 返回与 HTTP 升级请求解耦的连接级 context
// 升级请求的 context 在握手返回后即被取消，不能用于后续帧的处理
func (c *WebsocketClient) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// BindAndValid 基于全局验证器的 WebSocket 版本参数绑定和验证工具函数
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	var errs ValidErrors

	if err := sonic.Unmarshal(data, obj); err != nil {
		errs = append(errs, &ValidError{
			Key:     "body",
			Message: "Invalid message format",
		})
		return false, errs
	}

	validate := structValidator()
	if validate == nil {
		return true, nil
	}

	if err := validate.Struct(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var trans ut.Translator
			if v := c.Ctx.Value("trans"); v != nil {
				trans, _ = v.(ut.Translator)
			}
			for _, validationErr := range validationErrors {
				message := validationErr.Error()
				if trans != nil {
					message = validationErr.Translate(trans)
				}
				errs = append(errs, &ValidError{
					Key:     validationErr.Field(),
					Message: message,
				})
			}
		}
		return false, errs
	}
	return true, nil
}

func structValidator() *validator.Validate {
	if binding.Validator == nil {
		return nil
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v
	}
	return nil
}

// PingLoop 定期发送 Ping 消息
func (c *WebsocketClient) PingLoop(PingInterval time.Duration) {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			log(LogInfo, "WebsocketServer Client Close Ping")
			return
		case <-ticker.C:
			if c.conn == nil {
				return
			}
			if err := c.conn.WritePing(nil); err != nil {
				log(LogError, "WebsocketServer Client Ping err ", zap.Error(err))
				return
			}
		}
	}
}

// ToResponse 将结果转换为 JSON 格式并发送给客户端
func (c *WebsocketClient) ToResponse(code *code.Code, action ...string) {

	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	if code.HaveDetails() {
		details := strings.Join(code.Details(), ",")
		c.send(actionType, ResDetailsResult{
			Code:    code.Code(),
			Status:  code.Status(),
			Msg:     code.Lang.GetMessage(),
			Data:    code.Data(),
			Details: details,
		}, false, false)
	} else {
		if actionType != "" || code.Code() > 200 || code.HaveData() {
			c.send(actionType, ResResult{
				Code:   code.Code(),
				Status: code.Status(),
				Msg:    code.Lang.GetMessage(),
				Data:   code.Data(),
			}, false, false)
		}
	}
	code.Reset()
}

// BroadcastResponse 将结果转换为 JSON 格式并广播给工作区内所有客户端
// 第一个options参数为是否排除自己 第二个options参数为动作类型
func (c *WebsocketClient) BroadcastResponse(code *code.Code, options ...any) {

	var actionType string
	if len(options) > 1 {
		actionType = options[1].(string)
	}

	if code.HaveDetails() {
		details := strings.Join(code.Details(), ",")
		c.send(actionType, ResDetailsResult{
			Code:    code.Code(),
			Status:  code.Status(),
			Msg:     code.Lang.GetMessage(),
			Data:    code.Data(),
			Details: details,
		}, true, options[0].(bool))
	} else {
		c.send(actionType, ResResult{
			Code:   code.Code(),
			Status: code.Status(),
			Msg:    code.Lang.GetMessage(),
			Data:   code.Data(),
		}, true, options[0].(bool))
	}

	code.Reset()
}

func (c *WebsocketClient) send(actionType string, content any, isBroadcast bool, isExcludeSelf bool) {
	responseBytes, _ := sonic.Marshal(content)
	if actionType != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, actionType, string(responseBytes)))
	}
	if isBroadcast {
		c.broadcast(responseBytes, isExcludeSelf)
	} else {
		c.message(responseBytes)
	}
}

func (c *WebsocketClient) message(payload []byte) {
	c.conn.WriteMessage(gws.OpcodeText, payload)
}

func (c *WebsocketClient) broadcast(payload []byte, isExcludeSelf bool) {
	if c.WorkspaceClients == nil {
		return
	}
	var b = gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	for _, wc := range *c.WorkspaceClients {
		if wc.conn == nil {
			continue
		}
		if isExcludeSelf && wc.conn == c.conn {
			continue
		}

		_ = b.Broadcast(wc.conn)
	}
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

type WebsocketServer struct {
	handlers         map[string]func(*WebsocketClient, *WebSocketMessage)
	workspaceHandler func(*WebsocketClient, string) error
	joinHook         func(*WebsocketClient)
	leaveHook        func(*WebsocketClient)
	clients          ConnStorage
	workspaceClients map[string]ConnStorage
	mu               sync.Mutex
	up               *gws.Upgrader
	config           *WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	wss := WebsocketServer{
		handlers:         make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:          make(ConnStorage),
		workspaceClients: make(map[string]ConnStorage),
		config:           &c,
	}
	return &wss
}

func (w *WebsocketServer) Upgrade() {
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
}

func (w *WebsocketServer) Run() gin.HandlerFunc {

	return func(c *gin.Context) {

		w.Upgrade()
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			log(LogError, "WebsocketServer Start err", zap.Error(err))
			return
		}
		client := &WebsocketClient{
			conn: socket,
			done: make(chan struct{}),
			ctx:  context.WithoutCancel(c.Request.Context()),
			Ctx:  c,
			SF:   new(singleflight.Group),
		}
		w.AddClient(client)
		log(LogInfo, "WebsocketServer Start", zap.String("type", "ReadLoop"))
		go socket.ReadLoop()
	}
}

func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// WorkspaceValidateUse 注册工作区有效性校验回调
func (w *WebsocketServer) WorkspaceValidateUse(handler func(*WebsocketClient, string) error) {
	w.workspaceHandler = handler
}

// JoinHookUse 注册加入后回调（在线状态登记、事件广播）
func (w *WebsocketServer) JoinHookUse(hook func(*WebsocketClient)) {
	w.joinHook = hook
}

// LeaveHookUse 注册离开后回调
func (w *WebsocketServer) LeaveHookUse(hook func(*WebsocketClient)) {
	w.leaveHook = hook
}

// WorkspaceJoin registers the connection as a workspace member; every other
// action requires a completed join
// WorkspaceJoin 将连接登记为工作区成员；其余所有操作都要求先完成加入
func (w *WebsocketServer) WorkspaceJoin(c *WebsocketClient, msg *WebSocketMessage) {

	var join JoinEntity
	if valid, errs := c.BindAndValid(msg.Data, &join); !valid {
		log(LogError, "WebsocketServer WorkspaceJoin FAILD", zap.String("err", errs.Error()))
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...), "WorkspaceJoin")
		time.Sleep(2 * time.Second)
		c.conn.WriteClose(1000, []byte("WorkspaceJoinFaild"))
		return
	}

	// 工作区有效性强制验证
	if w.workspaceHandler != nil {
		if err := w.workspaceHandler(c, join.WorkspaceID); err != nil {
			log(LogError, "WebsocketServer WorkspaceJoin FAILD Workspace Not Exist", zap.Error(err))
			c.ToResponse(code.ErrorWorkspaceNotFound, "WorkspaceJoin")
			time.Sleep(2 * time.Second)
			c.conn.WriteClose(1000, []byte("WorkspaceJoinFaild"))
			return
		}
	}

	c.WorkspaceID = join.WorkspaceID
	c.ActorID = join.ActorID
	c.ActorName = join.ActorName
	w.AddWorkspaceClient(c)

	workspaceClients := w.workspaceClients[join.WorkspaceID]
	c.WorkspaceClients = &workspaceClients

	c.ToResponse(code.Success, "WorkspaceJoin")
	log(LogInfo, "WebsocketServer Actor Enters",
		zap.String("workspaceId", c.WorkspaceID),
		zap.String("actorId", c.ActorID),
		zap.Int("Count", len(workspaceClients)))

	if w.joinHook != nil {
		w.joinHook(c)
	}
	go c.PingLoop(w.config.PingInterval)
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
	wsConnectionsActive.Set(float64(len(w.clients)))
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
	wsConnectionsActive.Set(float64(len(w.clients)))
}

func (w *WebsocketServer) AddWorkspaceClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.workspaceClients[c.WorkspaceID] == nil {
		w.workspaceClients[c.WorkspaceID] = make(ConnStorage)
	}
	w.workspaceClients[c.WorkspaceID][c.conn] = c
}

func (w *WebsocketServer) RemoveWorkspaceClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.workspaceClients[c.WorkspaceID], c.conn)
	log(LogInfo, "WebsocketServer Client Remove", zap.Int("clientCount", len(w.clients)))
}

// Broadcast pushes a prebuilt "Action|payload" frame to every member of a
// workspace; used by the event fan-out
// Broadcast 向工作区全部成员推送已构建的 "Action|payload" 帧；用于事件扇出
func (w *WebsocketServer) Broadcast(workspaceID string, actionType string, content any) {
	payload, _ := sonic.Marshal(content)
	if actionType != "" {
		payload = []byte(fmt.Sprintf(`%s|%s`, actionType, string(payload)))
	}

	w.mu.Lock()
	var conns []*gws.Conn
	for conn, wc := range w.workspaceClients[workspaceID] {
		if wc.conn == nil {
			continue
		}
		conns = append(conns, conn)
	}
	w.mu.Unlock()

	if len(conns) == 0 {
		return
	}

	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()
	for _, conn := range conns {
		_ = b.Broadcast(conn)
	}
}

// WorkspaceClientCount 返回工作区当前连接数
func (w *WebsocketServer) WorkspaceClientCount(workspaceID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.workspaceClients[workspaceID])
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	log(LogInfo, "WebsocketServer Client Connect", zap.Int("Count", len(w.clients)))
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {

	c := w.GetClient(conn)

	w.RemoveClient(conn)

	if c == nil {
		return
	}

	if c.WorkspaceID != "" {
		c.done <- struct{}{}
		log(LogInfo, "WebsocketServer Actor Leave",
			zap.String("workspaceId", c.WorkspaceID),
			zap.String("actorId", c.ActorID))
		w.RemoveWorkspaceClient(c)
		if w.leaveHook != nil {
			w.leaveHook(c)
		}
	}

	log(LogInfo, "WebsocketServer Client Leave", zap.Int("Count", len(w.clients)))

}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	if message.Data.String() == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.GetClient(conn)

	messageStr := message.Data.String()
	index := strings.Index(messageStr, "|")

	var msg WebSocketMessage
	if index != -1 {
		msg.Type = messageStr[:index]           // 提取分隔符之前的部分
		msg.Data = []byte(messageStr[index+1:]) // 提取分隔符之后的部分
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("type", "Illegal message type"))
		return
	}

	if msg.Type == "WorkspaceJoin" {
		w.WorkspaceJoin(c, &msg)
		return
	}

	// 验证连接是否已加入工作区
	if c.WorkspaceID == "" {
		c.ToResponse(code.ErrorNotActorID)
		return
	}

	handler, exists := w.handlers[msg.Type]
	if exists {
		log(LogInfo, "WebsocketServer OnMessage", zap.String("Type", msg.Type))
		handler(c, &msg)
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("msg", "Unknown message type"))
	}
}
