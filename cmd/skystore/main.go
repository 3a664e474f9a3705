package main

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/mdouchement/skystore/internal/cache"
	"github.com/mdouchement/skystore/internal/config"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/logger"
	"github.com/mdouchement/skystore/internal/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &cobra.Command{
		Use:     "skystore",
		Short:   "Skystore catalog and blog server",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.ExactArgs(0),
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file")

	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)
	c.AddCommand(serverCmd)
	c.AddCommand(consoleCmd())
	c.AddCommand(setupPermissionsCmd)
	c.AddCommand(loadContactInfoCmd)
	c.AddCommand(loadProductsCmd())
	c.AddCommand(grantCmd())

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

// load returns the configuration and the logger configured by it.
func load() (*config.Config, *logrus.Logger, error) {
	konf, err := config.Load(cfg)
	if err != nil {
		return nil, nil, err
	}

	l, err := logger.New(logger.Config{
		Level:      konf.Log.Level,
		File:       konf.Log.File,
		MaxSize:    konf.Log.MaxSize,
		MaxBackups: konf.Log.MaxBackups,
		MaxAge:     konf.Log.MaxAge,
	})
	if err != nil {
		return nil, nil, err
	}

	return konf, l, nil
}

// open opens the database of the configuration.
func open() (*config.Config, database.Client, *logrus.Logger, error) {
	konf, l, err := load()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.StormOpen(konf.Database())
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "could not open database")
	}
	return konf, db, l, nil
}

func listingCache(c config.Cache) (cache.Cache, error) {
	switch {
	case c.RedisURL != "":
		return cache.NewRedis(c.RedisURL, c.TTL)
	case c.Size > 0:
		return cache.NewMemory(c.Size, c.TTL)
	}
	return cache.Nop{}, nil
}

// sharedCache returns the listing cache a running server shares with the commands.
// The in-memory cache lives in the server process so only Redis is returned.
func sharedCache(c config.Cache) (cache.Cache, error) {
	if c.RedisURL == "" {
		return cache.Nop{}, nil
	}
	return cache.NewRedis(c.RedisURL, c.TTL)
}

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Init the database",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			return database.StormInit(konf.Database())
		},
	}

	//
	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			return database.StormReIndex(konf.Database())
		},
	}

	//
	//
	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start server",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, l, err := load()
			if err != nil {
				return err
			}

			if err = konf.Validate(); err != nil {
				return err
			}

			db, err := database.StormOpen(konf.Database())
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			c, err := listingCache(konf.Cache)
			if err != nil {
				return errors.Wrap(err, "could not setup cache")
			}
			if closer, ok := c.(io.Closer); ok {
				defer closer.Close()
			}

			engine := server.EchoEngine(server.Controller{
				Version:                    version,
				Database:                   db,
				Cache:                      c,
				Logger:                     l,
				MediaPath:                  konf.MediaPath,
				NoRegistration:             konf.NoRegistration,
				SigningKey:                 []byte(konf.SecretKey),
				AccessTokenExpirationTime:  konf.Session.AccessTokenTTL,
				RefreshTokenExpirationTime: konf.Session.RefreshTokenTTL,
			})
			server.PrintRoutes(engine)

			address := konf.Address
			message := "could not run server"
			l.Infof("Server listening on %s", address)
			parts := strings.Split(address, ":")
			if len(parts) == 2 && parts[0] == "unix" {
				socketFile := parts[1]
				if _, err := os.Stat(socketFile); err == nil {
					l.Infof("Removing existing %s", socketFile)
					os.Remove(socketFile)
				}
				defer os.Remove(socketFile)
				listener, err := net.Listen(parts[0], socketFile)
				if err != nil {
					return err
				}
				return errors.Wrap(engine.Server.Serve(listener), message)
			}
			return errors.Wrap(engine.Start(address), message)
		},
	}
)
