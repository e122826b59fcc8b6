package e2e

import (
	"context"
	"fmt"
	"net"
	"netquiz/client"
	"netquiz/infrastructure/storage"
	"netquiz/internal"
	"netquiz/protocol"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseSuite struct {
	suite.Suite
	Config Config

	app           *internal.App
	db            *badger.DB
	notifications *net.UDPConn
}

// SetupSuite loads the environment configuration and starts a server when none is given.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr == "" {
		s.startInProcess()
		return
	}
	if s.Config.NotificationPort > 0 {
		s.notifications, err = net.ListenUDP("udp4", &net.UDPAddr{Port: s.Config.NotificationPort})
		s.Require().NoError(err)
	}
}

func (s *BaseSuite) TearDownSuite() {
	if s.app != nil {
		s.Require().NoError(s.app.Shutdown())
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.notifications != nil {
		_ = s.notifications.Close()
	}
}

// startInProcess runs the whole server on loopback and broadcasts its
// notifications to a local socket the suite reads from.
func (s *BaseSuite) startInProcess() {
	var err error
	s.notifications, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	s.Require().NoError(err)

	cfg := internal.Config{
		Host:              "127.0.0.1",
		NotificationPort:  s.notifications.LocalAddr().(*net.UDPAddr).Port,
		BroadcastAddress:  "127.0.0.1",
		LogLevel:          "DEBUG",
		FilesDirectory:    s.T().TempDir(),
		NotifyQueueSize:   256,
		WriteTimeout:      5 * time.Second,
		TagTimeout:        5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		RestartInterval:   time.Second,
		HeartbeatInterval: time.Second,
		CapacityInterval:  time.Second,
		LowCapacity:       8,
		CharReplacement:   "*",
		ModerationEnabled: true,
		MaxUploadSize:     1 << 20,
	}
	s.Require().NoError(cfg.Validate())

	log := logs.GetLoggerFromString(cfg.LogLevel)
	s.db, err = storage.OpenBadger("", log)
	s.Require().NoError(err)
	s.app, err = internal.NewApp(cfg, log, s.db)
	s.Require().NoError(err)
	s.Require().NoError(s.app.Start(context.Background()))

	s.Config.ServerAddr = s.app.Addr().String()
	s.Config.AdminAddr = s.app.AdminAddr().String()
}

// Step prints a colorized header for a scenario step in the logs.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

func (s *BaseSuite) Ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Config.Timeout)
}

// Name makes a username unique across scenarios sharing one server.
func (s *BaseSuite) Name(base string) string {
	return base + "-" + uuid.NewString()[:8]
}

func (s *BaseSuite) Login(username, credential string) *client.Chat {
	ctx, cancel := s.Ctx()
	defer cancel()
	chat, err := client.Login(ctx, s.Config.ServerAddr, username, credential)
	s.Require().NoError(err, "login of %s", username)
	return chat
}

// WaitFrame skips frames until one matches tag and text, other sessions
// coming and going on a shared server being irrelevant to the scenario.
func (s *BaseSuite) WaitFrame(chat *client.Chat, tag, text string) protocol.Frame {
	return s.waitFrame(chat, fmt.Sprintf("%s %q", tag, text), func(f protocol.Frame) bool {
		return f.Tag == tag && f.Text == text
	})
}

func (s *BaseSuite) WaitUsers(chat *client.Chat, users ...string) protocol.Frame {
	return s.waitFrame(chat, fmt.Sprintf("user list with %v", users), func(f protocol.Frame) bool {
		if f.Tag != protocol.FrameUserList {
			return false
		}
		for _, u := range users {
			if !slices.Contains(f.Items, u) {
				return false
			}
		}
		return true
	})
}

func (s *BaseSuite) waitFrame(chat *client.Chat, want string, match func(protocol.Frame) bool) protocol.Frame {
	deadline := time.Now().Add(s.Config.Timeout)
	for time.Now().Before(deadline) {
		f, err := chat.Next(time.Until(deadline))
		s.Require().NoError(err, "%s waiting for %s", chat.Username, want)
		if match(f) {
			return f
		}
		s.T().Logf("%s skipped %s %q %v", chat.Username, f.Tag, f.Text, f.Items)
	}
	s.FailNow("frame not received", "%s waiting for %s", chat.Username, want)
	return protocol.Frame{}
}

// WaitNotification reads datagrams until want shows up. It is a no-op when
// the suite cannot listen to the server's broadcasts.
func (s *BaseSuite) WaitNotification(want string) {
	if s.notifications == nil {
		s.T().Logf("notification %q not checked", want)
		return
	}
	buf := make([]byte, 64<<10)
	deadline := time.Now().Add(s.Config.Timeout)
	_ = s.notifications.SetReadDeadline(deadline)
	defer func() { _ = s.notifications.SetReadDeadline(time.Time{}) }()

	for {
		n, _, err := s.notifications.ReadFromUDP(buf)
		s.Require().NoError(err, "waiting for notification %q", want)
		if line := string(buf[:n]); line == want {
			return
		} else if s.Config.DebugJSON {
			s.T().Logf("skipped notification %q", line)
		}
	}
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithHealth provides a health client of the admin endpoint within a contextual test step
func (s *BaseSuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.AdminAddr == "" {
		s.T().Skip("NETQUIZ_ADMIN_ADDR not set")
	}
	conn := s.GrpcConn(s.T(), name, s.Config.AdminAddr)
	defer conn.Close()

	ctx, cancel := s.Ctx()
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}
