// Command chatstream sends one message through the assistant stream client and
// prints the chunks. Tool calls are echoed and answered with an error so the
// model's recovery path can be checked without a places API key.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/FACorreiaa/go-trip-planner-chat/config"
	generativeAI "github.com/FACorreiaa/go-trip-planner-chat/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

var (
	model   = flag.String("model", "gemini-2.0-flash", "the model name, e.g. gemini-2.0-flash")
	message = flag.String("message", "Recommend three cafes near Seongsu station.", "user message")
	dest    = flag.String("destination", "Seoul", "trip destination used in the system prompt")
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug, TimeFormat: time.Kitchen}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := generativeAI.NewAIClient(ctx, config.LLMConfig{
		APIKey:      os.Getenv("GOOGLE_GEMINI_API_KEY"),
		Model:       *model,
		Temperature: 0.5,
	}, logger)
	if err != nil {
		log.Fatal(err)
	}

	req := generativeAI.StreamRequest{
		SystemPrompt: fmt.Sprintf("You are a travel assistant for a trip to %s.", *dest),
		Message:      *message,
		HandleTool: func(_ context.Context, call types.ToolCall) types.ToolExecutionResult {
			fmt.Printf("\n[tool %s] %s\n", call.Name, call.Args)
			return types.ToolExecutionResult{Error: "tool execution is disabled in chatstream"}
		},
	}

	for chunk := range client.StreamChat(ctx, req) {
		switch chunk.Type {
		case types.LLMChunkText:
			fmt.Print(chunk.Text)
		case types.LLMChunkError:
			log.Fatal(chunk.Err)
		case types.LLMChunkDone:
			fmt.Println()
		}
	}
}
