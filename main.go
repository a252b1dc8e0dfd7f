package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gachabot/ai"
	"gachabot/bot"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Fatal("Please set DISCORD_TOKEN environment variable")
	}

	cfg := bot.Config{
		Token:         token,
		OwnerID:       os.Getenv("OWNER_ID"),
		BotName:       os.Getenv("BOT_NAME"),
		DefaultPrefix: os.Getenv("PREFIX"),
		SettingsFile:  os.Getenv("SETTINGS_FILE"),
		PrefixFile:    os.Getenv("PREFIX_FILE"),
		AI: ai.Config{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			ChatModel:   os.Getenv("CHAT_MODEL"),
			VisionModel: os.Getenv("VISION_MODEL"),
			ImageAPIURL: os.Getenv("IMAGE_API_URL"),
			SearchURL:   os.Getenv("SEARCH_URL"),
			UserAgent:   "gachabot (https://github.com/gachabot, v1.0.0)",
		},
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create bot instance
	discordBot, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	// Start bot
	if err := discordBot.Start(ctx); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	log.Println("Bot is now running. Press CTRL+C to exit.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := discordBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
