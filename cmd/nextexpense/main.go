package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/akihotaki/NextExpense/internal/bot"
	"github.com/akihotaki/NextExpense/internal/cmd"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*bot.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return bot.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("nextexpense: %v", err)
	}
}
