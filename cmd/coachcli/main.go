// Package main provides a terminal client for the coaching websocket endpoint.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/protocol"
)

// Client represents a coaching websocket client.
type Client struct {
	conn *websocket.Conn
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ask sends one turn and prints the reply as it streams in.
func (c *Client) Ask(cc domain.ConversationContext, input string) error {
	msg := protocol.AskMessage{
		BaseMessage: protocol.NewBase(protocol.TypeAsk, fmt.Sprintf("req_%d", time.Now().UnixNano())),
		Context:     cc,
		UserInput:   input,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write ask: %w", err)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var base protocol.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			log.Printf("Unmarshal error: %v", err)
			continue
		}

		switch base.Type {
		case protocol.TypeDelta:
			var delta protocol.DeltaMessage
			if err := json.Unmarshal(data, &delta); err != nil {
				log.Printf("Unmarshal delta error: %v", err)
				continue
			}
			fmt.Print(delta.Text)
		case protocol.TypeDone:
			var done protocol.DoneMessage
			if err := json.Unmarshal(data, &done); err != nil {
				return fmt.Errorf("unmarshal done: %w", err)
			}
			printResponse(done.Response)
			return nil
		case protocol.TypeError:
			var errMsg protocol.ErrorMessage
			if err := json.Unmarshal(data, &errMsg); err != nil {
				return fmt.Errorf("unmarshal error message: %w", err)
			}
			return fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		}
	}
}

func printResponse(r domain.AIResponse) {
	fmt.Println()
	fmt.Println()
	if r.Encouragement != "" {
		fmt.Printf("* %s\n", r.Encouragement)
	}
	if r.Insights != "" {
		fmt.Printf("Insight: %s\n", r.Insights)
	}
	for _, s := range r.Suggestions {
		fmt.Printf("  - %s\n", s)
	}
	for _, q := range r.FollowUpQuestions {
		fmt.Printf("  ? %s\n", q)
	}
}

// sessionCommands map slash commands to the session type they switch to.
var sessionCommands = map[string]domain.SessionType{
	"/start":       domain.SessionTypeStart,
	"/pause":       domain.SessionTypePause,
	"/distraction": domain.SessionTypeDistraction,
	"/done":        domain.SessionTypeCompletion,
	"/break":       domain.SessionTypeBreak,
	"/reflect":     domain.SessionTypeReflection,
}

// parseInput splits a line into the session type to use and the remaining text.
func parseInput(line string, current domain.SessionType) (domain.SessionType, string) {
	cmd, rest, _ := strings.Cut(line, " ")
	if t, ok := sessionCommands[cmd]; ok {
		return t, strings.TrimSpace(rest)
	}
	return current, line
}

func main() {
	_ = godotenv.Load()

	defaultAddr := os.Getenv("COACH_WS_URL")
	if defaultAddr == "" {
		defaultAddr = "ws://localhost:8080/v1/coach/local/ws"
	}
	addr := flag.String("addr", defaultAddr, "Coaching websocket address")
	task := flag.String("task", "", "Task you are working on")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Println("Connected. Type a message and press Enter.")
	fmt.Println("Commands: /start /pause /distraction /done /break /reflect [text], /quit to exit")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		client.Close()
		os.Exit(0)
	}()

	sessionType := domain.SessionTypeReflection
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			fmt.Println("Bye!")
			return
		}

		var text string
		sessionType, text = parseInput(input, sessionType)
		cc := domain.ConversationContext{SessionType: sessionType, CurrentTask: *task}
		if err := client.Ask(cc, text); err != nil {
			log.Printf("Ask failed: %v", err)
		}
	}
}
