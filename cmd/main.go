package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"climate-dashboard/handler"
	"climate-dashboard/internal/config"
	"climate-dashboard/internal/integrations/forestwatch"
	"climate-dashboard/internal/integrations/huggingface"
	"climate-dashboard/internal/integrations/openai"
	"climate-dashboard/internal/integrations/openweather"
	"climate-dashboard/internal/integrations/paramstore"
	"climate-dashboard/internal/logger"
	"climate-dashboard/internal/repository"
	"climate-dashboard/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS config")
	}

	// ---- Credentials ----
	creds := cfg.Credentials()
	if cfg.ParamPrefix != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create SSM client")
		}
		creds = config.ResolveCredentials(ctx, creds, ssmClient, cfg.ParamPrefix, log)
	}
	log.Info().
		Bool("openai", creds.OpenAI != "").
		Bool("huggingface", creds.HuggingFace != "").
		Bool("forestwatch", creds.ForestWatch != "").
		Bool("openweather", creds.OpenWeather != "").
		Msg("provider credentials resolved")

	// ---- Provider clients ----
	openaiClient := openai.NewClient(creds.OpenAI,
		openai.WithModel(cfg.OpenAIModel),
		openai.WithBaseURL(cfg.OpenAIBaseURL),
	)
	hfClient := huggingface.NewClient(huggingface.ClientConfig{
		APIKey:  creds.HuggingFace,
		Model:   cfg.HuggingFaceModel,
		BaseURL: cfg.HuggingFaceBaseURL,
	})
	forestClient := forestwatch.NewClient(forestwatch.ClientConfig{
		APIKey:  creds.ForestWatch,
		BaseURL: cfg.ForestWatchBaseURL,
	})
	weatherClient := openweather.NewClient(openweather.ClientConfig{
		APIKey:  creds.OpenWeather,
		BaseURL: cfg.OpenWeatherBaseURL,
	})

	// ---- Transcript store (optional) ----
	var store usecase.TranscriptStore
	if cfg.StateTable != "" {
		repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create transcript store")
		}
		store = repo
	}

	// ---- Services ----
	chatService, err := usecase.NewChatService(
		[]usecase.ChatProvider{
			{Name: openai.Name, Available: openaiClient.Available, Generate: openaiClient.Chat},
			{Name: huggingface.Name, Available: hfClient.Available, Generate: hfClient.Generate},
		},
		store,
		log,
		usecase.ChatConfig{
			MaxHistoryItems:  cfg.MaxHistoryItems,
			MaxMessageLength: cfg.MaxMessageLength,
			ProviderTimeout:  cfg.ProviderTimeout,
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create chat service")
	}

	envService, err := usecase.NewEnvironmentService(forestClient, weatherClient, log, usecase.EnvironmentConfig{
		Thresholds: usecase.SeverityThresholds{
			CriticalAbove: cfg.SeverityCriticalAbove,
			HighAbove:     cfg.SeverityHighAbove,
		},
		ProviderTimeout: cfg.ProviderTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create environment service")
	}

	// ---- Handler ----
	h, err := handler.NewHandler(chatService, envService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create handler")
	}

	lambda.Start(h.Handle)
}
