// Command admin grants or revokes the admin role on an existing profile.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/navbryce/next-post-be/config"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/db/sqlstore"
	"github.com/navbryce/next-post-be/logging"
	"github.com/navbryce/next-post-be/model"
	"github.com/sirupsen/logrus"
)

func main() {
	var email, role string
	flag.StringVar(&email, "email", "", "email of the profile to change")
	flag.StringVar(&role, "role", string(model.RoleAdmin), "role to set: admin | user")
	flag.Parse()

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

	ctx := context.Background()
	store, err := sqlstore.GetDatabase(ctx, props.DB)
	if err != nil {
		log.WithError(err).Fatalf("connect to %s database", props.DB.Adapter)
	}
	defer store.Close()

	if err := setRole(ctx, store, email, model.Role(role)); err != nil {
		log.WithError(err).Error("role not changed")
		store.Close()
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{"email": model.NormalizeEmail(email), "role": role}).Info("role changed")
}

func setRole(ctx context.Context, profiles appDb.ProfileDatabase, email string, role model.Role) error {
	switch role {
	case model.RoleAdmin, model.RoleUser:
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if model.NormalizeEmail(email) == "" {
		return errors.New("-email is required")
	}
	if err := profiles.SetRole(ctx, email, role); err != nil {
		if errors.Is(err, appDb.ErrNotFound) {
			return fmt.Errorf("no profile for %s, the account has to sign in once first", email)
		}
		return err
	}
	return nil
}
