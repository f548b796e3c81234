package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/app"
	"github.com/navbryce/next-post-be/config"
	"github.com/navbryce/next-post-be/controllers"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/db/sqlstore"
	"github.com/navbryce/next-post-be/logging"
	"github.com/navbryce/next-post-be/routes"
	"github.com/navbryce/next-post-be/services"
	"github.com/sirupsen/logrus"
)

func main() {
	props, err := config.Read()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(props.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, props, log); err != nil {
		log.WithError(err).Fatal("next-post stopped")
	}
}

func run(ctx context.Context, props *config.Properties, log *logrus.Logger) error {
	db, err := sqlstore.GetDatabase(ctx, props.DB)
	if err != nil {
		return fmt.Errorf("connect to %s database: %w", props.DB.Adapter, err)
	}
	defer db.Close()

	var firebaseApp *firebase.App
	if props.NeedsFirebase() {
		if err := configureFirebaseCredentials(props.Firebase, log); err != nil {
			return fmt.Errorf("configure firebase credentials: %w", err)
		}
		firebaseApp, err = firebase.NewApp(ctx, firebaseConfig(props))
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
	}

	assets, err := newAssetStore(ctx, props, firebaseApp)
	if err != nil {
		return fmt.Errorf("connect to %s asset store: %w", props.Storage.Driver, err)
	}
	identity, err := newIdentityProvider(ctx, props, firebaseApp, db)
	if err != nil {
		return fmt.Errorf("initialize %s identity provider: %w", props.Auth.Driver, err)
	}

	authorizer := app.NewAuthorizer(identity, db, props.Auth.AdminEmails, log)
	lifecycle := app.NewLifecycle(db, assets, log)
	moderation := controllers.NewModerationController(lifecycle, log)

	gin.SetMode(props.Server.Mode)
	r := gin.New()
	r.MaxMultipartMemory = props.Server.MaxUploadBytes
	r.Use(logging.GinLogger(log))
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     props.Server.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(routes.LimitBody(props.Server.MaxUploadBytes))
	if props.Server.PProf {
		pprof.Register(r)
	}

	routes.AddHealthCheckRoutes(&r.RouterGroup, db.GetSQLDB())
	routes.AddAuthRoutes(&r.RouterGroup, identity, authorizer, authorizer, props.Server.Mode == gin.ReleaseMode, log)
	routes.AddAPIRoutes(&r.RouterGroup, lifecycle, authorizer)
	routes.AddPostRoutes(&r.RouterGroup, lifecycle, authorizer)
	routes.AddAdminRoutes(&r.RouterGroup, moderation, authorizer)

	server := &http.Server{
		Addr:         ":" + props.Server.Port,
		Handler:      r,
		ReadTimeout:  props.Server.ReadTimeout,
		WriteTimeout: props.Server.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), props.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func firebaseConfig(props *config.Properties) *firebase.Config {
	conf := &firebase.Config{ProjectID: props.Firebase.ProjectID}
	if props.Storage.Driver == config.StorageDriverFirebase {
		conf.StorageBucket = props.Storage.Bucket
	}
	return conf
}

func newAssetStore(ctx context.Context, props *config.Properties, firebaseApp *firebase.App) (services.AssetStore, error) {
	switch props.Storage.Driver {
	case config.StorageDriverMinio:
		return services.NewMinioBucket(
			props.Storage.Host,
			props.Storage.AccessKey,
			props.Storage.SecretKey,
			props.Storage.Bucket,
			props.Storage.PublicBase,
			props.Storage.UseSSL,
		)
	default:
		return services.NewStorageBucket(ctx, firebaseApp, props.Storage.Bucket)
	}
}

func newIdentityProvider(ctx context.Context, props *config.Properties, firebaseApp *firebase.App, db appDb.CredentialDatabase) (services.IdentityProvider, error) {
	switch props.Auth.Driver {
	case config.AuthDriverOIDC:
		return services.NewOIDCIdentity(ctx, services.OIDCConfig{
			Issuer:       props.Auth.Issuer,
			ClientID:     props.Auth.ClientID,
			ClientSecret: props.Auth.ClientSecret,
			Scopes:       props.Auth.Scopes,
		})
	case config.AuthDriverLocal:
		return services.NewLocalIdentity(db, props.Auth.JWTSecret, props.Auth.SessionTTL), nil
	default:
		return services.NewFirebaseIdentity(ctx, firebaseApp)
	}
}

const (
	CredentialsPathEnvVar = "GOOGLE_APPLICATION_CREDENTIALS"
	CredentialsJsonEnvVar = "GOOGLE_APPLICATION_CREDENTIALS_JSON"
)

// configureFirebaseCredentials lets deployments hand over the service account
// either as a path or as a JSON string, which is written to CredentialsFile.
func configureFirebaseCredentials(props config.FirebaseProperties, log logrus.FieldLogger) error {
	credentialsPath, hasCredentialsPath := os.LookupEnv(CredentialsPathEnvVar)
	if hasCredentialsPath {
		log.WithField("path", credentialsPath).Info("using firebase credentials path from env")
		return nil
	}
	credentialsJson, hasCredentialsJson := os.LookupEnv(CredentialsJsonEnvVar)
	if hasCredentialsJson {
		log.Info("using firebase credentials JSON from env")
		if err := os.WriteFile(props.CredentialsFile, []byte(credentialsJson), 0400); err != nil {
			return fmt.Errorf("error writing credentials to %v: %w", props.CredentialsFile, err)
		}
		if err := os.Setenv(CredentialsPathEnvVar, props.CredentialsFile); err != nil {
			return fmt.Errorf("error setting %v env var: %w", CredentialsPathEnvVar, err)
		}
		return nil
	}
	return fmt.Errorf("must specify either %v (a path)"+
		" or %v (credentials as JSON string)", CredentialsPathEnvVar, CredentialsJsonEnvVar)
}
