package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"chat-relay/auth"
	"chat-relay/infrastructure/rest"
	ws "chat-relay/infrastructure/websocket"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const readTimeout = 3 * time.Second

// BaseChatSuite boots the whole server in-process on an ephemeral port and
// gives scenarios authenticated HTTP and websocket clients against it.
type BaseChatSuite struct {
	suite.Suite
	server *httptest.Server
	conns  []*websocket.Conn
}

func (s *BaseChatSuite) SetupTest() {
	s.conns = nil
	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	logger := slog.Default()
	messageRepository := repositories.NewMessageRepository(db, logger)
	groupMessageRepository := repositories.NewGroupMessageRepository(db, logger)
	groupRepository := repositories.NewGroupRepository(db, logger)
	userRepository := repositories.NewUserRepository(db)

	tokens := auth.NewTokenManager("e2e-secret", time.Hour)
	authService := services.NewAuthService(userRepository, tokens, logger)
	messageService := services.NewMessageService(messageRepository, groupMessageRepository, groupRepository, nil, logger)
	groupService := services.NewGroupService(groupRepository, logger)

	stats := &observability.Stats{}
	registry := runtime.NewRegistry(stats, logger)
	dispatcher := runtime.NewDispatcher(registry, messageService, groupService, stats, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /ws/{user_id}", ws.NewHandler(authService, dispatcher, 5*time.Second, 4096, logger))
	rest.NewHandler(authService, messageService, groupService, stats, logger).Register(mux)

	s.server = httptest.NewServer(mux)
	s.T().Cleanup(s.server.Close)
}

// RegisterAndLogin provisions credentials over the HTTP surface and returns a
// bearer token for the identity.
func (s *BaseChatSuite) RegisterAndLogin(username, password, pin string) string {
	status, _ := s.PostJSON("/api/auth/register", map[string]string{
		"username": username, "password": password, "pin": pin,
	})
	s.Require().Equal(http.StatusOK, status)

	status, body := s.PostJSON("/api/auth/login", map[string]string{
		"username": username, "password": password,
	})
	s.Require().Equal(http.StatusOK, status)
	token, _ := body["access_token"].(string)
	s.Require().NotEmpty(token)
	return token
}

func (s *BaseChatSuite) PostJSON(path string, payload any) (int, map[string]any) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

// GetJSON performs an authenticated GET and decodes the response into out.
func (s *BaseChatSuite) GetJSON(path, token string, out any) int {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// Dial opens the realtime connection for an identity. The returned client is
// closed automatically at the end of the test.
func (s *BaseChatSuite) Dial(identity, token string) *WsClient {
	url := fmt.Sprintf("%s/ws/%s?token=%s",
		strings.Replace(s.server.URL, "http", "ws", 1), identity, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.conns = append(s.conns, conn)
	return &WsClient{suite: s, identity: identity, conn: conn}
}

// DialRaw is Dial without the handshake success assertion, for scenarios that
// expect the server to reject the connection.
func (s *BaseChatSuite) DialRaw(identity, token string) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s/ws/%s?token=%s",
		strings.Replace(s.server.URL, "http", "ws", 1), identity, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		s.conns = append(s.conns, conn)
	}
	return conn, err
}

// TearDownTest closes every connection dialed during the test. Cleanup cannot
// hang off s.T(): inside s.Run that is the subtest's *testing.T, which would
// close connections as soon as the subtest that dialed them ends.
func (s *BaseChatSuite) TearDownTest() {
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

type WsClient struct {
	suite    *BaseChatSuite
	identity string
	conn     *websocket.Conn
}

func (c *WsClient) Send(payload any) {
	c.suite.Require().NoError(c.conn.WriteJSON(payload))
}

// ReadUntil keeps reading events until one with the wanted type arrives,
// skipping unrelated presence churn along the way. The server broadcasts a
// newcomer's status to every connection including its own, so a client's own
// status echo is skipped too.
func (c *WsClient) ReadUntil(eventType string) map[string]any {
	deadline := time.Now().Add(readTimeout)
	for {
		c.suite.Require().NoError(c.conn.SetReadDeadline(deadline))
		var event map[string]any
		c.suite.Require().NoError(c.conn.ReadJSON(&event), "waiting for %q", eventType)
		if event["type"] == "status" && event["user_id"] == c.identity {
			continue
		}
		if event["type"] == eventType {
			return event
		}
	}
}

func (c *WsClient) Close() {
	_ = c.conn.Close()
}
