package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feelday/moodlog/internal/service"
)

type Server struct {
	mx              *chi.Mux
	userService     service.UserServiceI
	moodService     service.MoodServiceI
	prefsService    service.PrefsServiceI
	insightsService service.InsightsServiceI
	sessions        SessionHolderI
	transcriber     TranscriberI
	voiceClient     VoiceClientI
	jwtService      JWTServiceI
}

type ServicesList struct {
	UserService     service.UserServiceI
	MoodService     service.MoodServiceI
	PrefsService    service.PrefsServiceI
	InsightsService service.InsightsServiceI
	Sessions        SessionHolderI
	Transcriber     TranscriberI
	VoiceClient     VoiceClientI
	JwtService      JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	s := &Server{
		mx:              chi.NewMux(),
		userService:     servicesOptions.UserService,
		moodService:     servicesOptions.MoodService,
		prefsService:    servicesOptions.PrefsService,
		insightsService: servicesOptions.InsightsService,
		sessions:        servicesOptions.Sessions,
		transcriber:     servicesOptions.Transcriber,
		voiceClient:     servicesOptions.VoiceClient,
		jwtService:      servicesOptions.JwtService,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)
		r.Group(func(pr chi.Router) {
			pr.Use(s.AuthMiddleware, s.LoggerExtensionMiddleware)
			pr.Post("/auth/logout", s.Logout)
			pr.Post("/entries/check-in", s.RecordCheckIn)
			pr.Post("/entries/quick-update", s.RecordQuickUpdate)
			pr.Get("/entries", s.GetEntries)
			pr.Get("/entries/average", s.GetDayAverage)
			pr.Get("/insights", s.GetInsights)
			pr.Get("/preferences", s.GetPreferences)
			pr.Put("/preferences", s.UpdatePreferences)
			pr.Post("/transcriptions", s.Transcribe)
			pr.Post("/voice/toggle", s.ToggleVoice)
			pr.Get("/voice", s.GetVoiceState)
			pr.Post("/admin/seed", s.SeedMockEntries)
		})
	})
}

func (s *Server) Run(address string) error {
	return http.ListenAndServe(address, s.mx)
}

// Mux exposes the routed handler for tests.
func (s *Server) Mux() http.Handler {
	return s.mx
}
