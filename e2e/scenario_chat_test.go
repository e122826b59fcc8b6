package e2e

import (
	"context"
	"netquiz/client"
	"netquiz/errors"
	"netquiz/infrastructure/grpc/server"
	"netquiz/protocol"
	"testing"

	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type testChatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func (s *testChatSuite) TestAdminHealth() {
	s.WithHealth("Checking the admin endpoint", func(ctx context.Context, client healthpb.HealthClient) {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: server.ServiceName})
		s.Require().NoError(err)
		s.Require().Equal(healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

func (s *testChatSuite) TestThreeUsersChat() {
	alice, bob, carol := s.Name("alice"), s.Name("bob"), s.Name("carol")

	s.Step("Step 1: alice, bob and carol log in")
	aliceChat := s.Login(alice, "")
	defer aliceChat.Close()
	s.Require().Equal("Welcome to NetQuiz chat, "+alice+"!", aliceChat.Welcome)
	s.WaitNotification("SYSTEM:" + alice + " joined the chat")

	bobChat := s.Login(bob, "")
	defer bobChat.Close()
	s.WaitFrame(aliceChat, protocol.FrameSystem, bob+" has joined the chat")

	carolChat := s.Login(carol, "")
	defer carolChat.Close()
	s.WaitFrame(aliceChat, protocol.FrameSystem, carol+" has joined the chat")
	s.WaitFrame(bobChat, protocol.FrameSystem, carol+" has joined the chat")
	s.WaitUsers(carolChat, alice, bob, carol)

	s.Step("Step 2: a public message is censored and reaches the others")
	s.Require().NoError(aliceChat.Send("hello you idiot"))
	s.WaitFrame(bobChat, protocol.FrameChat, "["+alice+"]: hello you *****")
	s.WaitFrame(carolChat, protocol.FrameChat, "["+alice+"]: hello you *****")

	s.Step("Step 3: a private message reaches only its target")
	s.Require().NoError(bobChat.Send("/msg " + carol + " see you later"))
	s.WaitFrame(carolChat, protocol.FramePrivate, "[Private from "+bob+"]: see you later")
	s.WaitFrame(bobChat, protocol.FrameSystem, "Message delivered to "+carol)

	s.Step("Step 4: commands answer the sender")
	s.Require().NoError(aliceChat.Send("/users"))
	s.WaitUsers(aliceChat, alice, bob, carol)
	s.Require().NoError(aliceChat.Send("/msg nobody-here hi"))
	s.WaitFrame(aliceChat, protocol.FrameError, "User nobody-here not found")

	s.Step("Step 5: the username is held while alice is online")
	ctx, cancel := s.Ctx()
	defer cancel()
	_, err := client.Login(ctx, s.Config.ServerAddr, alice, "")
	s.Require().ErrorIs(err, errors.ErrLoginRejected)

	s.Step("Step 6: carol logs out")
	s.Require().NoError(carolChat.Logout())
	s.WaitFrame(aliceChat, protocol.FrameSystem, carol+" has left the chat")
	s.WaitFrame(bobChat, protocol.FrameSystem, carol+" has left the chat")
	s.WaitNotification("SYSTEM:" + carol + " left the chat")

	users, err := client.Users(ctx, s.Config.ServerAddr)
	s.Require().NoError(err)
	s.Require().Contains(users, alice)
	s.Require().NotContains(users, carol)
}
