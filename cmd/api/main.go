// @title Mood journal API
// @description API for mood-journaling app "Feelday"
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"log"

	"github.com/feelday/moodlog/internal/api"
	"github.com/feelday/moodlog/internal/repository"
	"github.com/feelday/moodlog/internal/service"
	"github.com/feelday/moodlog/internal/session"
	"github.com/feelday/moodlog/internal/transcription"
	"github.com/feelday/moodlog/internal/voice"
	"github.com/feelday/moodlog/pkg/cleanup"
	"github.com/feelday/moodlog/pkg/config"
	jwtservice "github.com/feelday/moodlog/pkg/jwt_service"
)

func init() {
	service.InitValidator()
}

func main() {
	defer cleanup.CleanUp()
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	localStore := repository.NewLocalStore(&repository.RedisCfg{
		Address:  cfg.GetString("REDIS_ADDRESS"),
		Password: cfg.GetString("REDIS_PASSWORD"),
		DB:       cfg.GetInt("REDIS_DB", 0),
	})

	userService := service.NewUserService(repository.NewUsersRepo(&dbCfg))
	moodService := service.NewMoodService(localStore, repository.NewEntriesRepo(&dbCfg))
	prefsService := service.NewPrefsService(localStore, repository.NewPrefsRepo(&dbCfg))
	insightsService := service.NewInsightsService(moodService)
	jwtService := jwtservice.New(cfg.GetString("JWT_SECRET"))

	sessions := session.NewHolder(userService, jwtService)
	sessions.OnChange(func(ctx context.Context, identity *session.Identity) {
		if identity != nil {
			moodService.SyncOnIdentity(ctx, identity.UID)
		}
	})

	transcriber := transcription.New(&transcription.Config{
		BaseURL: cfg.GetString("STT_BASE_URL"),
		APIKey:  cfg.GetString("STT_API_KEY"),
		Model:   cfg.GetStringDefault("STT_MODEL", "whisper-1"),
	})

	voiceTransport, err := voice.NewMQTTTransport(&voice.MQTTConfig{
		Broker:       cfg.GetString("VOICE_MQTT_BROKER"),
		ClientID:     cfg.GetStringDefault("VOICE_MQTT_CLIENT_ID", "moodlog-api"),
		Username:     cfg.GetString("VOICE_MQTT_USER"),
		Password:     cfg.GetString("VOICE_MQTT_PASSWORD"),
		ControlTopic: cfg.GetStringDefault("VOICE_CONTROL_TOPIC", "voice/control"),
		EventsTopic:  cfg.GetStringDefault("VOICE_EVENTS_TOPIC", "voice/events"),
	})
	if err != nil {
		log.Fatal("connecting voice transport error: " + err.Error())
	}
	voiceClient := voice.NewClient(voiceTransport, cfg.GetString("VOICE_ASSISTANT_ID"))

	serv := api.New(&api.ServicesList{
		UserService:     userService,
		MoodService:     moodService,
		PrefsService:    prefsService,
		InsightsService: insightsService,
		Sessions:        sessions,
		Transcriber:     transcriber,
		VoiceClient:     voiceClient,
		JwtService:      jwtService,
	})
	err = serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
