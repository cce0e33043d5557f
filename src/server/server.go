package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	app "csvgate/src/app"
	cfg "csvgate/src/configuration"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the /users and /files routes of the BFF.
func NewRouter(config *cfg.Properties, auth *AuthHandler, files *ExternalHandler, sessions *SessionManager) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	router.Use(cors.New(corsConfig(config.Server)))
	if config.Server.Pprof {
		pprof.Register(router)
	}
	router.Use(sessions.LoadSession())

	router.GET("/health", GetHealth)

	users := router.Group("/users")
	users.POST("", auth.Signup)
	users.GET("", RequireSession(), auth.Logout)
	users.POST("/login", auth.Login)
	users.POST("/confirm", auth.Confirm)
	users.GET("/me", RequireSession(), auth.Account)

	// File routes do not require a session: without one no Authorization is
	// forwarded and the gateway's own refusal is relayed.
	filesGroup := router.Group("/files")
	filesGroup.GET("", files.ListFiles)
	filesGroup.POST("", files.UploadFile)
	filesGroup.GET("/:fileName", files.GetFile)
	filesGroup.GET("/:fileName/download", files.DownloadFile)
	filesGroup.POST("/:fileName/delete", files.DeleteFile)

	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{}) })
	return router
}

// RunServer builds the BFF from config and serves it until ctx is cancelled.
func RunServer(ctx context.Context, config *cfg.Properties) error {
	identity, err := app.NewCognitoClient(ctx, config.Auth)
	if err != nil {
		return err
	}
	verifier := app.NewIDTokenVerifier(ctx, config.Auth)
	gateway := app.NewGatewayClient(config.Gateway)
	sessions := NewSessionManager(config.Session)

	router := NewRouter(config,
		NewAuthHandler(identity, verifier, sessions),
		NewExternalHandler(gateway),
		sessions)

	logrus.WithFields(logrus.Fields{
		"gateway":  config.Gateway.URL,
		"userPool": config.Auth.UserPoolID,
		"encoding": config.Gateway.UploadEncoding,
	}).Info("file gateway BFF configured")
	return serve(ctx, config.Server, router)
}

func serve(ctx context.Context, config cfg.HttpServerProperties, handler http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           handler,
		ReadHeaderTimeout: config.ReadTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("%s listening on %s", config.Name, server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
