package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"nest-server/core"
	"nest-server/handlers/api/assets"
	"nest-server/handlers/api/comments"
	"nest-server/handlers/api/notes"
	"nest-server/handlers/api/pictures"
	"nest-server/handlers/auth"
	"nest-server/handlers/websocket"
	authMiddleware "nest-server/middleware"
	"nest-server/services"
	"nest-server/stores"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type application struct {
	pictures *services.Pictures
	notes    *services.Notes
	comments *services.Comments
	assets   core.AssetStore
	cfg      config
}

func newApplication(store stores.Store, assetStore core.AssetStore, cfg config, opts ...services.Option) *application {
	return &application{
		pictures: services.NewPictures(store, store, assetStore, opts...),
		notes:    services.NewNotes(store, store, opts...),
		comments: services.NewComments(store, store, store, opts...),
		assets:   assetStore,
		cfg:      cfg,
	}
}

func setupRouter(app *application) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, core.PictureGrid.Path(), http.StatusSeeOther)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/images/{name}", assets.HandleImage(app.assets))
	r.Get("/thumbnails/{name}", assets.HandleThumbnail(app.assets))

	r.Route("/pictures", func(r chi.Router) {
		r.Get("/", pictures.HandleGrid(app.pictures))
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Get("/mypage", pictures.HandleMyPage(app.pictures))
			r.Get("/create", pictures.HandleCreateView())
			r.Post("/", pictures.HandleCreate(app.pictures, app.cfg.MaxUploadBytes))
		})
		r.Route("/{id}", func(r chi.Router) {
			r.With(authMiddleware.OptionalJWT).Get("/", pictures.HandleDetails(app.pictures))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AuthJWT)
				r.Get("/edit", pictures.HandleEditView(app.pictures))
				r.Post("/edit", pictures.HandleEdit(app.pictures, app.cfg.MaxUploadBytes))
				r.Get("/delete", pictures.HandleDeleteView(app.pictures))
				r.Post("/delete", pictures.HandleDelete(app.pictures))
				r.Post("/comments", comments.HandleCreateForPicture(app.comments))
			})
		})
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", notes.HandleFeed(app.notes))
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Get("/mypage", notes.HandleMyPage(app.notes))
			r.Get("/create", notes.HandleCreateView())
			r.Post("/", notes.HandleCreate(app.notes))
		})
		r.Route("/{id}", func(r chi.Router) {
			r.With(authMiddleware.OptionalJWT).Get("/", notes.HandleDetails(app.notes))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AuthJWT)
				r.Get("/edit", notes.HandleEditView(app.notes))
				r.Post("/edit", notes.HandleEdit(app.notes))
				r.Get("/delete", notes.HandleDeleteView(app.notes))
				r.Post("/delete", notes.HandleDelete(app.notes))
				r.Post("/comments", comments.HandleCreateForNote(app.comments))
			})
		})
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/", comments.HandleList(app.comments))
		r.Route("/{id}", func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Get("/edit", comments.HandleEditView(app.comments))
			r.Post("/edit", comments.HandleEdit(app.comments))
			r.Get("/delete", comments.HandleDeleteView(app.comments))
			r.Post("/delete", comments.HandleDelete(app.comments))
		})
	})

	return r
}

// seedDemoData adds a welcome note and picture when both listings are empty.
func seedDemoData(ctx context.Context, app *application) {
	if len(app.pictures.Grid(ctx)) > 0 || len(app.notes.Feed(ctx)) > 0 {
		logrus.Info("Store already has content, skipping seed")
		return
	}

	const demo = core.Owner("demo")
	if _, _, err := app.notes.Create(ctx, demo, core.NoteForm{
		Title:   "Welcome to Nest",
		Content: "Share pictures and notes, and comment on what others post.",
	}, core.SourceDefault); err != nil {
		logrus.WithError(err).Error("Failed to seed note")
	}
	if _, _, err := app.pictures.Create(ctx, demo, core.PictureForm{
		Title:       "First picture",
		Description: "Upload a file to replace this placeholder.",
	}, nil, core.SourceDefault); err != nil {
		logrus.WithError(err).Error("Failed to seed picture")
	}
	logrus.WithField("user", demo).Info("Seeded demo content")
}

func waitForShutdown(srv *http.Server, ioo *socketio.Server) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	ioo.Close(nil)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	seed := flag.Bool("seed", false, "Add demo content when the store is empty.")
	issueToken := flag.String("issue-token", "", "Print a bearer token for the given user name and exit.")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	if *issueToken != "" {
		token, err := auth.CreateJWT(*issueToken, 24*time.Hour)
		if err != nil {
			logrus.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	cfg := loadConfig()
	ctx := context.Background()
	store := stores.GetStore()
	assetStore := stores.GetAssetStore(ctx)

	ioo := websocket.SetupSocketIO(cfg.AllowedOrigins)
	feed := websocket.NewFeed(ioo)
	app := newApplication(store, assetStore, cfg, services.WithNotifier(feed))

	if *seed {
		seedDemoData(ctx, app)
	}

	r := setupRouter(app)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	srv := &http.Server{Addr: *listenAddress, Handler: r}
	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, ioo)
}
