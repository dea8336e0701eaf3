package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/chatclient"
)

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("CHAT_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	logger := zap.NewExample()
	defer logger.Sync()

	store := chatclient.NewStore(chatclient.NewFileStorage(storagePath()))
	store.Initialize()

	timer := chatclient.NewBackoffTimer(nil)
	defer timer.Stop()

	coordinator := chatclient.NewCoordinator(store, timer, baseURL, nil, logger)

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		renderer = nil
	}

	fmt.Println("---- The Globe chat (escribe '/reset' para reiniciar, '/exit' para salir) ----")
	for _, msg := range store.Messages() {
		printMessage(renderer, msg)
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Tu > ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.EqualFold(line, "/exit"):
			return
		case strings.EqualFold(line, "/reset"):
			store.Reset()
			fmt.Println("Conversación reiniciada.")
			printMessage(renderer, store.Messages()[0])
			continue
		}

		if timer.IsActive() {
			fmt.Printf("Rate limit activo: espera %d segundos.\n", timer.SecondsRemaining())
			continue
		}

		before := len(store.Messages())
		coordinator.Send(ctx, line)
		for _, msg := range store.Messages()[before:] {
			if msg.Sender == chatclient.SenderAssistant {
				printMessage(renderer, msg)
			}
		}
	}
}

// printMessage renderiza los turnos del asistente como Markdown saneado.
func printMessage(renderer *glamour.TermRenderer, msg chatclient.Message) {
	if msg.Sender != chatclient.SenderAssistant {
		fmt.Printf("Tu > %s\n", msg.Text)
		return
	}
	if renderer != nil {
		if out, err := renderer.Render(msg.Text); err == nil {
			fmt.Print("Asistente >", out)
			return
		}
	}
	fmt.Printf("Asistente > %s\n", msg.Text)
}

func storagePath() string {
	if custom := os.Getenv("CHAT_STORAGE_PATH"); custom != "" {
		return custom
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".theglobe_chat.json"
	}
	return filepath.Join(home, ".theglobe_chat.json")
}
