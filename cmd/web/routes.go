package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/httputil"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/middleware"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/service"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/share"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

type shareInfo struct {
	Token         string `json:"token"`
	JoinURL       string `json:"join_url"`
	InviteMessage string `json:"invite_message"`
}

type gameResponse struct {
	*game.Game
	Share shareInfo `json:"share"`
}

func (s *server) gameResponse(g *game.Game) gameResponse {
	joinURL := share.JoinURL(s.cfg.BaseURL, g.ShareToken)
	return gameResponse{
		Game: g,
		Share: shareInfo{
			Token:         g.ShareToken,
			JoinURL:       joinURL,
			InviteMessage: share.InviteMessage(g.Title, joinURL),
		},
	}
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(s.sessionManager.LoadAndSave)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"service": "cancha-leconte", "status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.PingContext(r.Context()); err != nil {
			httputil.Error(w, s.log, game.ErrStorageUnavailable)
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public share-link routes. Throttled: the token is the only credential.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(s.limiter, s.log))

		r.Get("/join/{token}", func(w http.ResponseWriter, r *http.Request) {
			view, err := s.public.PublicGame(r.Context(), chi.URLParam(r, "token"))
			if err != nil {
				httputil.Error(w, s.log, err)
				return
			}
			httputil.JSON(w, http.StatusOK, view)
		})

		r.Post("/join/{token}/register", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				PlayerName  string `json:"player_name"`
				PlayerPhone string `json:"player_phone"`
			}
			if err := httputil.Decode(w, r, &req); err != nil {
				httputil.BadRequest(w, "invalid JSON body")
				return
			}

			out, err := s.public.Register(r.Context(), chi.URLParam(r, "token"), req.PlayerName, req.PlayerPhone)
			if err != nil {
				httputil.Error(w, s.log, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]any{
				"player_name":       out.Registration.PlayerName,
				"confirmed":         out.Confirmed,
				"waitlist_position": out.WaitlistPosition,
			})
		})

		r.Post("/join/{token}/cancel", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				PlayerPhone string `json:"player_phone"`
			}
			if err := httputil.Decode(w, r, &req); err != nil {
				httputil.BadRequest(w, "invalid JSON body")
				return
			}

			if err := s.public.CancelRegistration(r.Context(), chi.URLParam(r, "token"), req.PlayerPhone); err != nil {
				httputil.Error(w, s.log, err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]bool{"cancelled": true})
		})

		r.Get("/join/{token}/status", func(w http.ResponseWriter, r *http.Request) {
			status, err := s.public.RegistrationStatus(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("phone"))
			if err != nil {
				httputil.Error(w, s.log, err)
				return
			}
			httputil.JSON(w, http.StatusOK, status)
		})
	})

	// Admin API.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.sessionManager, s.userStore))

		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			user := middleware.GetAuthenticatedUser(r.Context())
			if user == nil {
				httputil.Unauthorized(w)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]string{
				"id":       user.ID.String(),
				"email":    user.Email,
				"username": user.Username,
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				adminID, ok := middleware.GetUserIDFromContext(r.Context())
				if !ok {
					httputil.Unauthorized(w)
					return
				}

				var req struct {
					Title           string    `json:"title"`
					ScheduledStart  time.Time `json:"scheduled_start"`
					DurationMinutes int       `json:"duration_minutes"`
					MinPlayers      int       `json:"min_players"`
					MaxPlayers      int       `json:"max_players"`
					CostPerPlayer   int       `json:"cost_per_player"`
					TeamAName       string    `json:"team_a_name"`
					TeamBName       string    `json:"team_b_name"`
				}
				if err := httputil.Decode(w, r, &req); err != nil {
					httputil.BadRequest(w, "invalid JSON body")
					return
				}

				g, err := s.games.CreateGame(r.Context(), adminID, service.CreateGameInput{
					Title:           req.Title,
					ScheduledStart:  req.ScheduledStart,
					DurationMinutes: req.DurationMinutes,
					MinPlayers:      req.MinPlayers,
					MaxPlayers:      req.MaxPlayers,
					CostPerPlayer:   req.CostPerPlayer,
					TeamAName:       req.TeamAName,
					TeamBName:       req.TeamBName,
				})
				if err != nil {
					httputil.Error(w, s.log, err)
					return
				}
				httputil.JSON(w, http.StatusCreated, s.gameResponse(g))
			})

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				adminID, ok := middleware.GetUserIDFromContext(r.Context())
				if !ok {
					httputil.Unauthorized(w)
					return
				}

				q := r.URL.Query()
				in := service.ListGamesInput{Status: q.Get("status")}
				var err error
				if in.Limit, err = queryInt(q.Get("limit")); err != nil {
					httputil.BadRequest(w, "limit must be a number")
					return
				}
				if in.Offset, err = queryInt(q.Get("offset")); err != nil {
					httputil.BadRequest(w, "offset must be a number")
					return
				}
				if raw := q.Get("from"); raw != "" {
					from, err := time.Parse(time.RFC3339, raw)
					if err != nil {
						httputil.BadRequest(w, "from must be an RFC 3339 timestamp")
						return
					}
					in.From = &from
				}

				games, err := s.games.ListGames(r.Context(), adminID, in)
				if err != nil {
					httputil.Error(w, s.log, err)
					return
				}
				httputil.JSON(w, http.StatusOK, map[string]any{"games": games})
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					detail, err := s.games.GetGame(r.Context(), adminID, gameID)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, map[string]any{
						"game":      s.gameResponse(detail.Game),
						"confirmed": detail.Confirmed,
						"waitlist":  detail.Waitlist,
						"result":    detail.Result,
					})
				})

				r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					var req struct {
						Title           *string    `json:"title"`
						ScheduledStart  *time.Time `json:"scheduled_start"`
						DurationMinutes *int       `json:"duration_minutes"`
						MinPlayers      *int       `json:"min_players"`
						MaxPlayers      *int       `json:"max_players"`
						CostPerPlayer   *int       `json:"cost_per_player"`
						TeamAName       *string    `json:"team_a_name"`
						TeamBName       *string    `json:"team_b_name"`
					}
					if err := httputil.Decode(w, r, &req); err != nil {
						httputil.BadRequest(w, "invalid JSON body")
						return
					}

					g, err := s.games.UpdateGame(r.Context(), adminID, gameID, service.UpdateGameInput{
						Title:           req.Title,
						ScheduledStart:  req.ScheduledStart,
						DurationMinutes: req.DurationMinutes,
						MinPlayers:      req.MinPlayers,
						MaxPlayers:      req.MaxPlayers,
						CostPerPlayer:   req.CostPerPlayer,
						TeamAName:       req.TeamAName,
						TeamBName:       req.TeamBName,
					})
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, s.gameResponse(g))
				})

				r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					if err := s.games.DeleteGame(r.Context(), adminID, gameID); err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					w.WriteHeader(http.StatusNoContent)
				})

				r.Post("/open", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					g, err := s.games.OpenRegistration(r.Context(), adminID, gameID)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, s.gameResponse(g))
				})

				r.Post("/close", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					g, err := s.games.CloseRegistration(r.Context(), adminID, gameID)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, s.gameResponse(g))
				})

				r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					var req struct {
						Reason string `json:"reason"`
					}
					if err := httputil.Decode(w, r, &req); err != nil {
						httputil.BadRequest(w, "invalid JSON body")
						return
					}

					g, err := s.games.CancelGame(r.Context(), adminID, gameID, req.Reason)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, s.gameResponse(g))
				})

				r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					var req struct {
						Method  string            `json:"method"`
						Mapping map[string]string `json:"mapping"`
					}
					if err := httputil.Decode(w, r, &req); err != nil {
						httputil.BadRequest(w, "invalid JSON body")
						return
					}

					result, err := s.games.AssignTeams(r.Context(), adminID, gameID, service.AssignTeamsInput{
						Method:  req.Method,
						Mapping: req.Mapping,
					})
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, map[string]any{
						"game":   s.gameResponse(result.Game),
						"team_a": result.TeamA,
						"team_b": result.TeamB,
					})
				})

				r.Post("/result", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					var req struct {
						TeamAScore int    `json:"team_a_score"`
						TeamBScore int    `json:"team_b_score"`
						Notes      string `json:"notes"`
					}
					if err := httputil.Decode(w, r, &req); err != nil {
						httputil.BadRequest(w, "invalid JSON body")
						return
					}

					result, err := s.games.RecordResult(r.Context(), adminID, gameID, service.RecordResultInput{
						TeamAScore: req.TeamAScore,
						TeamBScore: req.TeamBScore,
						Notes:      req.Notes,
					})
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, result)
				})

				r.Get("/registrations", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					roster, err := s.games.GetRegistrations(r.Context(), adminID, gameID)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, map[string]any{
						"confirmed": roster.Confirmed,
						"waitlist":  roster.Waitlist,
					})
				})

				r.Patch("/registrations/{regID}/payment", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}
					regID, err := uuid.Parse(chi.URLParam(r, "regID"))
					if err != nil {
						httputil.BadRequest(w, "invalid registration id")
						return
					}

					var req struct {
						PaymentStatus string `json:"payment_status"`
					}
					if err := httputil.Decode(w, r, &req); err != nil {
						httputil.BadRequest(w, "invalid JSON body")
						return
					}

					reg, err := s.games.UpdatePayment(r.Context(), adminID, gameID, regID, req.PaymentStatus)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					httputil.JSON(w, http.StatusOK, reg)
				})

				r.Get("/audit", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}
					limit, err := queryInt(r.URL.Query().Get("limit"))
					if err != nil {
						httputil.BadRequest(w, "limit must be a number")
						return
					}

					rows, err := s.games.AuditTrail(r.Context(), adminID, gameID, limit)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					entries := make([]map[string]any, 0, len(rows))
					for _, row := range rows {
						entries = append(entries, map[string]any{
							"id":          row.ID,
							"at":          row.At,
							"actor_id":    row.ActorID,
							"action":      row.Action,
							"entity_type": row.EntityType,
							"entity_id":   row.EntityID,
							"details":     json.RawMessage(row.Details),
						})
					}
					httputil.JSON(w, http.StatusOK, map[string]any{"entries": entries})
				})

				r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
					adminID, gameID, ok := s.adminAndGame(w, r)
					if !ok {
						return
					}

					rows, err := s.games.Notifications(r.Context(), adminID, gameID)
					if err != nil {
						httputil.Error(w, s.log, err)
						return
					}
					out := make([]map[string]any, 0, len(rows))
					for _, n := range rows {
						out = append(out, map[string]any{
							"id":              n.ID,
							"type":            n.Type,
							"recipient_phone": n.RecipientPhone,
							"payload":         json.RawMessage(n.Payload),
							"status":          n.Status,
							"deliver_after":   n.DeliverAfter,
							"sent_at":         n.SentAt,
						})
					}
					httputil.JSON(w, http.StatusOK, map[string]any{"notifications": out})
				})
			})
		})
	})

	// Auth. OAuth for real deployments, guest login for a single admin
	// running on their own machine.
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(goth.GetProviders()))
		for name := range goth.GetProviders() {
			names = append(names, name)
		}
		sort.Strings(names)

		providers := make([]map[string]string, 0, len(names))
		for _, name := range names {
			providers = append(providers, map[string]string{
				"provider": name,
				"url":      s.cfg.BaseURL + "/auth/" + name,
			})
		}
		httputil.JSON(w, http.StatusOK, map[string]any{"providers": providers})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "authentication failure")
			return
		}

		user, err := s.users.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.Error(w, s.log, err)
			return
		}

		s.sessionManager.Put(r.Context(), "userID", user.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.Error(w, s.log, err)
			return
		}

		s.sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.JSON(w, http.StatusOK, map[string]string{"id": user.ID.String(), "username": user.Username})
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessionManager.Destroy(r.Context()); err != nil {
			httputil.Error(w, s.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// adminAndGame pulls the session admin and the {id} route param, answering
// the request itself when either is missing.
func (s *server) adminAndGame(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w)
		return uuid.Nil, uuid.Nil, false
	}
	gameID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid game id")
		return uuid.Nil, uuid.Nil, false
	}
	return adminID, gameID, true
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
