package main

import (
	"fmt"
	"io"
	"log"

	"github.com/mdouchement/skystore/internal/cache"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/logger"
	"github.com/mdouchement/skystore/internal/seed"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	var redisURL string

	c := &cobra.Command{
		Use:   "rmuser DATABASE EMAIL",
		Short: "Remove a user, its products and its sessions from the database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Opening", args[0])
			db, err := database.StormOpen(args[0])
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			// A running server only shares its listings through Redis
			var listings cache.Cache = cache.Nop{}
			if redisURL != "" {
				r, err := cache.NewRedis(redisURL, 0)
				if err != nil {
					return err
				}
				if closer, ok := r.(io.Closer); ok {
					defer closer.Close()
				}
				listings = r
			}

			user, err := seed.RemoveUser(cmd.Context(), db, listings, args[1], logger.Discard())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Println("No account for this email")
				return nil
			}

			fmt.Println("User removed:", user.ID)
			return nil
		},
	}
	c.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL of the listing cache to flush")

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}
