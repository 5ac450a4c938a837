package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/internal/service"
	"github.com/feelday/moodlog/internal/voice"
	"github.com/feelday/moodlog/pkg/entity"
	"github.com/feelday/moodlog/pkg/httputil"
)

const dayLayout = "2006-01-02"

// Audio uploads are capped well above any realistic voice note.
const maxAudioBytes = 25 << 20

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CheckInRequest struct {
	Rating        int     `json:"rating"`
	CheckInType   string  `json:"check_in_type"`
	Note          *string `json:"note"`
	Transcription *string `json:"transcription"`
}

type QuickUpdateRequest struct {
	Rating *int    `json:"rating"`
	Note   *string `json:"note"`
}

type PreferencesRequest struct {
	ThemeIndex  int  `json:"theme_index"`
	IsOnboarded bool `json:"is_onboarded"`
}

type SeedRequest struct {
	Days int `json:"days"`
}

type EntriesResponse struct {
	UserID  string             `json:"uid"`
	Date    string             `json:"date"`
	Entries []entity.MoodEntry `json:"entries"`
}

type VoiceStateResponse struct {
	Active     bool             `json:"active"`
	Loading    bool             `json:"loading"`
	Transcript []voice.Fragment `json:"transcript"`
	Error      string           `json:"error,omitempty"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req CredentialsRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("registering error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	identity, err := s.sessions.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUserExists):
			logger.Error("registering error: existed user")
			httputil.WriteErrorResponse(w, http.StatusConflict, "user with such email already exists", nil)
		case errors.Is(err, errorvalues.ErrEmptyFields):
			logger.Error("registering error: empty credentials")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "email and password must not be empty", nil)
		default:
			logger.Error("registering error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "registration rejected", err)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, httputil.Envelope{
		"uid":   identity.UID.String(),
		"token": identity.Token,
	})
	logger.Info("successful registration")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req CredentialsRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("login error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	identity, err := s.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("login error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user with such email doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongCredentials):
			logger.Error("login error: wrong password")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "invalid email or password", nil)
		case errors.Is(err, errorvalues.ErrEmptyFields):
			logger.Error("login error: empty credentials")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "email and password must not be empty", nil)
		default:
			logger.Error("login error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during login", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, httputil.Envelope{
		"uid":   identity.UID.String(),
		"email": identity.Email,
		"token": identity.Token,
	})
	logger.Info("successful login")
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	s.sessions.SignOut(ctx)
	w.WriteHeader(http.StatusNoContent)
	logger.Info("signed out")
}

func (s *Server) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("check-in error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CheckInRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("check-in error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	entry, err := s.moodService.Store(ctx, uid).RecordCheckIn(ctx, &service.CheckInRequest{
		Rating:        req.Rating,
		CheckInType:   entity.CheckInType(req.CheckInType),
		Note:          req.Note,
		Transcription: req.Transcription,
	})
	if err != nil {
		logger.Error("check-in error: rejected", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "check-in rejected", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, entry)
	logger.Info("check-in recorded", slog.String("type", req.CheckInType))
}

func (s *Server) RecordQuickUpdate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("quick update error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req QuickUpdateRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("quick update error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	entry, err := s.moodService.Store(ctx, uid).RecordQuickUpdate(ctx, &service.QuickUpdateRequest{
		Rating: req.Rating,
		Note:   req.Note,
	})
	if err != nil {
		logger.Error("quick update error: rejected", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "quick update rejected", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, entry)
	logger.Info("quick update recorded")
}

// parseDay reads the optional ?date=YYYY-MM-DD query value, today when absent.
func parseDay(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(dayLayout, raw)
}

func (s *Server) GetEntries(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get entries error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	day, err := parseDay(r)
	if err != nil {
		logger.Error("get entries error: invalid date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return
	}
	var checkInType *entity.CheckInType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed := entity.CheckInType(raw)
		if !parsed.Valid() {
			logger.Error("get entries error: invalid check-in type")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "unknown check-in type", nil)
			return
		}
		checkInType = &parsed
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	entries := s.moodService.Store(ctx, uid).QueryByDayAndType(day, checkInType)
	httputil.WriteJSONResponse(w, http.StatusOK, EntriesResponse{
		UserID:  uid.String(),
		Date:    day.Format(dayLayout),
		Entries: entries,
	})
	logger.Info("entries provided", slog.Int("count", len(entries)))
}

func (s *Server) GetDayAverage(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("day average error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	day, err := parseDay(r)
	if err != nil {
		logger.Error("day average error: invalid date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	body := httputil.Envelope{
		"uid":  uid.String(),
		"date": day.Format(dayLayout),
	}
	if avg, ok := s.moodService.Store(ctx, uid).AverageForDay(day); ok {
		body["average"] = avg
	}
	httputil.WriteJSONResponse(w, http.StatusOK, body)
	logger.Info("day average provided")
}

func (s *Server) GetInsights(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("insights error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	summary, err := s.insightsService.Summary(ctx, uid)
	if err != nil {
		logger.Error("insights error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while building insights", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, summary)
	logger.Info("insights provided")
}

func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get preferences error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	prefs, err := s.prefsService.Get(ctx, uid)
	if err != nil {
		logger.Error("get preferences error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while reading preferences", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, prefs)
	logger.Info("preferences provided")
}

func (s *Server) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("update preferences error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req PreferencesRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update preferences error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	prefs, err := s.prefsService.Update(ctx, uid, req.ThemeIndex, req.IsOnboarded)
	if err != nil {
		logger.Error("update preferences error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while saving preferences", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, prefs)
	logger.Info("preferences updated")
}

func (s *Server) Transcribe(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	_, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("transcription error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	file, _, err := readAudioUpload(r)
	if err != nil {
		logger.Error("transcription error: invalid upload")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "expected multipart upload with an audio part", nil)
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		logger.Error("transcription error: reading upload failed", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't read uploaded audio", nil)
		return
	}
	if len(audio) > maxAudioBytes {
		logger.Error("transcription error: upload too large")
		httputil.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "audio exceeds the upload limit", nil)
		return
	}
	text, err := s.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		logger.Error("transcription error: provider call failed", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "transcription failed", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, httputil.Envelope{"text": text})
	logger.Info("transcription provided")
}

func readAudioUpload(r *http.Request) (io.ReadCloser, string, error) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, "", err
	}
	return file, header.Filename, nil
}

func (s *Server) ToggleVoice(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	_, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("voice toggle error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.voiceClient.ToggleCall(ctx)
	if err != nil {
		if errors.Is(err, errorvalues.ErrVoiceBusy) {
			logger.Error("voice toggle error: session still loading")
			httputil.WriteErrorResponse(w, http.StatusConflict, "voice session is still loading", nil)
			return
		}
		logger.Error("voice toggle error: transport error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "voice session call failed", err)
		return
	}
	s.writeVoiceState(w)
	logger.Info("voice session toggled", slog.Bool("active", s.voiceClient.Active()))
}

func (s *Server) GetVoiceState(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	_, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("voice state error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	s.writeVoiceState(w)
}

func (s *Server) writeVoiceState(w http.ResponseWriter) {
	httputil.WriteJSONResponse(w, http.StatusOK, VoiceStateResponse{
		Active:     s.voiceClient.Active(),
		Loading:    s.voiceClient.Loading(),
		Transcript: s.voiceClient.Transcript(),
		Error:      s.voiceClient.Err(),
	})
}

func (s *Server) SeedMockEntries(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("seeding error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req SeedRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Days < 1 || req.Days > 90 {
		req.Days = 5
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	err = s.moodService.SeedMockEntries(ctx, uid, req.Days)
	if err != nil {
		logger.Error("seeding error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "seeding mock entries failed", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, httputil.Envelope{
		"uid":  uid.String(),
		"days": req.Days,
	})
	logger.Info("mock entries seeded", slog.Int("days", req.Days))
}
