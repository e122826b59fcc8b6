package main

import (
	"bufio"
	"context"
	"fmt"
	"netquiz/client"
	"netquiz/protocol"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string        `env:"NETQUIZ_SERVER_ADDR,default=localhost:5002"`
	Username      string        `env:"NETQUIZ_USERNAME,required=true"`
	Password      string        `env:"NETQUIZ_PASSWORD"`
	LoginTimeout  time.Duration `env:"NETQUIZ_LOGIN_TIMEOUT,default=5s"`
	LogLevel      string        `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, pipes stdin lines to the chat and prints every server frame.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loginCtx, cancel := context.WithTimeout(ctx, config.LoginTimeout)
	chat, err := client.Login(loginCtx, config.ServerAddress, config.Username, config.Password)
	cancel()
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Logging out...")
		_ = chat.Logout()
	}()
	color.Green.Println(chat.Welcome)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := chat.Send(scanner.Text()); err != nil {
				log.Error("Send failed", "error", err)
				stop()
				return
			}
		}
		stop()
	}()

	frames := make(chan protocol.Frame)
	errChan := make(chan error, 1)
	go func() {
		for {
			f, err := chat.Next(0)
			if err != nil {
				errChan <- err
				return
			}
			frames <- f
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-errChan:
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case f := <-frames:
			render(f)
		}
	}
}

func render(f protocol.Frame) {
	switch f.Tag {
	case protocol.FrameChat:
		fmt.Println(f.Text)
	case protocol.FramePrivate:
		color.Magenta.Println(f.Text)
	case protocol.FrameSystem:
		color.Cyan.Println(f.Text)
	case protocol.FrameError:
		color.Red.Println(f.Text)
	case protocol.FrameUserList:
		color.Gray.Printf("Online: %s\n", strings.Join(f.Items, ", "))
	case protocol.FrameHelp:
		for _, line := range f.Items {
			color.Yellow.Println(line)
		}
	}
}
