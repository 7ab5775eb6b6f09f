package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

type threadResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type pendingCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
	ID   string         `json:"id"`
}

type pendingApproval struct {
	Call pendingCall `json:"call"`
}

type pendingResponse struct {
	Approvals []pendingApproval `json:"approvals"`
}

func main() {
	server := flag.String("server", "http://localhost:8080", "Server URL (http/https)")
	thread := flag.String("thread", "", "Thread ID to continue (optional)")
	approve := flag.Bool("approve", false, "Prompt for tool call verdicts (for servers running in prompt mode)")
	flag.Parse()

	base := strings.TrimSuffix(*server, "/") + "/api/1.0"

	threadID := *thread
	if threadID == "" {
		t, err := createThread(base)
		if err != nil {
			fmt.Printf("Could not create thread: %v\n", err)
			os.Exit(1)
		}
		threadID = t.ID
	}
	fmt.Printf("Thread: %s\n", threadID)

	reader := bufio.NewReader(os.Stdin)

	session := stream.NewSession(nil, base, threadID)
	session.OnChunk = printChunk

	for {
		fmt.Print("\nYou: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.ToLower(input) == "exit" || strings.ToLower(input) == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		// Ctrl-C cancels the in-flight turn, not the whole client
		ctx, cancelSignal := signal.NotifyContext(context.Background(), os.Interrupt)

		stop := make(chan struct{})
		if *approve {
			go promptApprovals(base, threadID, reader, stop)
		}

		fmt.Print("Assistant: ")
		if err := session.Send(ctx, input); err != nil {
			fmt.Printf("\nError: %v\n", err)
		}

		close(stop)
		cancelSignal()
	}
}

func printChunk(c stream.Chunk) {
	switch c.Type {
	case stream.ChunkTypeToken:
		fmt.Print(c.Content)
	case stream.ChunkTypeToolCall:
		if c.ToolCall != nil {
			args, _ := json.Marshal(c.ToolCall.Args)
			fmt.Printf("\n[calling %s %s]\n", c.ToolCall.Name, args)
		}
	case stream.ChunkTypeToolResult:
		if c.ToolResult != nil {
			fmt.Printf("[%s returned %s]\n", c.ToolResult.Name, c.ToolResult.Content)
		}
	case stream.ChunkTypeDone:
		fmt.Println()
	case stream.ChunkTypeError:
		fmt.Printf("\nError: %s\n", c.Error)
	}
}

func createThread(base string) (*threadResponse, error) {
	resp, err := http.Post(base+"/threads/", "application/json", strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	t := new(threadResponse)
	if err := json.NewDecoder(resp.Body).Decode(t); err != nil {
		return nil, err
	}
	return t, nil
}

// promptApprovals polls for gated tool calls while a turn is streaming and
// asks for a verdict on each. Stdin is free during a turn because the main
// loop is blocked sending.
func promptApprovals(base, threadID string, reader *bufio.Reader, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	seen := map[string]bool{}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		pending, err := readPending(base, threadID)
		if err != nil {
			continue
		}

		for _, p := range pending {
			if seen[p.Call.ID] {
				continue
			}
			seen[p.Call.ID] = true

			args, _ := json.Marshal(p.Call.Args)
			fmt.Printf("\nApprove %s %s? [y/N]: ", p.Call.Name, args)

			input, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			answer := strings.ToLower(strings.TrimSpace(input))

			if err := resolve(base, threadID, p.Call.ID, answer == "y" || answer == "yes"); err != nil {
				fmt.Printf("Could not send verdict: %v\n", err)
			}
		}
	}
}

func readPending(base, threadID string) ([]pendingApproval, error) {
	resp, err := http.Get(base + "/threads/" + threadID + "/approvals/")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	pr := new(pendingResponse)
	if err := json.NewDecoder(resp.Body).Decode(pr); err != nil {
		return nil, err
	}
	return pr.Approvals, nil
}

func resolve(base, threadID, callID string, approve bool) error {
	body, err := json.Marshal(map[string]bool{"approve": approve})
	if err != nil {
		return err
	}

	resp, err := http.Post(base+"/threads/"+threadID+"/approvals/"+callID, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
